package llm

import (
	"strings"
)

// DefaultMaxPromptChars caps the payslip text sent to the text model.
const DefaultMaxPromptChars = 12000

// SchemaInstruction is shared by the text and vision tiers.
const SchemaInstruction = "You extract data from payslips. Return ONLY a JSON object, with no prose and no markdown fencing, " +
	"using exactly these keys: gross_pay (number), tax_deducted (number), net_pay (number), pension (number), " +
	"social_security (number), other_deductions (number), pay_period_start (YYYY-MM-DD or null), " +
	"pay_period_end (YYYY-MM-DD or null), additional_data (object with employee_name, employer_name, " +
	"payment_date, employee_id and any other labelled values). " +
	"Amounts are plain numbers without currency symbols or thousands separators. " +
	"Use 0 for deductions that do not appear. National insurance or social security contributions go in social_security. " +
	"Never guess a value that is not printed on the payslip."

// BuildUserPrompt packages the extracted text, truncated to maxChars runes.
func BuildUserPrompt(text string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultMaxPromptChars
	}
	text = strings.TrimSpace(text)

	var b strings.Builder
	b.WriteString("Payslip text:\n")
	if r := []rune(text); len(r) > maxChars {
		b.WriteString(string(r[:maxChars]))
		b.WriteString("\n…(truncated)")
	} else {
		b.WriteString(text)
	}
	return b.String()
}

// BuildVisionPrompt is the text part sent next to the inline document.
func BuildVisionPrompt() string {
	return SchemaInstruction + " The payslip is attached as an image or PDF."
}
