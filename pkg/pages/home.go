// Package pages holds page objects for the converter UI.
package pages

import (
	"fmt"
	"strings"

	"github.com/thesyncim/dimdim/pkg/browser"
)

//go:generate mockgen -package=pages -destination=mock_browser_test.go github.com/thesyncim/dimdim/pkg/browser Session,Element

// Title fragment every converter page carries.
const TitleFragment = "dimdim converter"

var (
	fromCurrency = browser.CSS("select.from_currency")
	toCurrency   = browser.CSS("select.to_currency")
	fromAmount   = browser.Name("from_amount")
	toAmount     = browser.CSS(".to_amount")
	convertForm  = browser.ID("convert_form")
	body         = browser.Tag("body")
)

// HomePage is the converter form at the site root.
type HomePage struct {
	session browser.Session
	url     string
}

// NewHomePage binds the page object to s. baseURL is the site root.
func NewHomePage(s browser.Session, baseURL string) *HomePage {
	return &HomePage{session: s, url: strings.TrimRight(baseURL, "/") + "/"}
}

// URL returns the address Get loads.
func (p *HomePage) URL() string { return p.url }

// Get loads the page.
func (p *HomePage) Get() error {
	return browser.Navigate(p.session, p.url)
}

func (p *HomePage) Title() (string, error) {
	return p.session.Title()
}

func (p *HomePage) BodyText() (string, error) {
	return browser.Query(p.session, body)
}

func (p *HomePage) FromCurrencyValue() (string, error) {
	return browser.QueryAttribute(p.session, fromCurrency, "value")
}

func (p *HomePage) ToCurrencyValue() (string, error) {
	return browser.QueryAttribute(p.session, toCurrency, "value")
}

func (p *HomePage) FromAmountValue() (string, error) {
	return browser.QueryAttribute(p.session, fromAmount, "value")
}

// ToAmountValue is the rendered conversion result.
func (p *HomePage) ToAmountValue() (string, error) {
	return browser.Query(p.session, toAmount)
}

func (p *HomePage) SetToCurrencyValue(code string) error {
	return p.set(toCurrency, code)
}

func (p *HomePage) SetFromAmountValue(amount string) error {
	return p.set(fromAmount, amount)
}

// SubmitForm submits the conversion form and waits for the result page.
func (p *HomePage) SubmitForm() error {
	el, err := p.session.Find(convertForm)
	if err != nil {
		return err
	}
	if err := el.Submit(); err != nil {
		return fmt.Errorf("failed to submit %s: %w", convertForm, err)
	}
	return nil
}

// Convert fills amount and target currency, submits, and returns the result.
func (p *HomePage) Convert(amount, to string) (string, error) {
	if err := p.SetFromAmountValue(amount); err != nil {
		return "", err
	}
	if to != "" {
		if err := p.SetToCurrencyValue(to); err != nil {
			return "", err
		}
	}
	if err := p.SubmitForm(); err != nil {
		return "", err
	}
	return p.ToAmountValue()
}

func (p *HomePage) set(sel browser.Selector, value string) error {
	el, err := p.session.Find(sel)
	if err != nil {
		return err
	}
	if err := el.SetAttribute("value", value); err != nil {
		return fmt.Errorf("failed to set value of %s: %w", sel, err)
	}
	return nil
}
