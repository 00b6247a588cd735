package browser

// Element scripts run with `this` bound to the element. rod and chromedp
// call them through Runtime.callFunctionOn; playwright through applyScript.

// textScript mirrors WebDriver's visible text: innerText for rendered
// elements, textContent otherwise.
const textScript = `function() {
	const t = this.innerText !== undefined ? this.innerText : this.textContent;
	return t == null ? "" : String(t).trim();
}`

// attributeScript prefers the live DOM property, like WebDriver get_attribute.
const attributeScript = `function(name) {
	let v = (name in this) ? this[name] : this.getAttribute(name);
	if (v === null || v === undefined) v = this.getAttribute(name);
	return v === null || v === undefined ? "" : String(v);
}`

const setAttributeScript = `function(name, value) {
	this.setAttribute(name, value);
	if (name in this) this[name] = value;
	return true;
}`

// submitScript submits the enclosing form, firing submit listeners when
// requestSubmit is available.
const submitScript = `function() {
	const form = this.tagName === "FORM" ? this : this.form;
	if (!form) throw new Error("element is not in a form");
	if (typeof form.requestSubmit === "function") form.requestSubmit();
	else form.submit();
	return true;
}`

// applyScript adapts an element script to playwright's (element, arg) call
// convention; args are passed as an array.
func applyScript(fn string) string {
	return "(el, args) => (" + fn + ").apply(el, args)"
}
