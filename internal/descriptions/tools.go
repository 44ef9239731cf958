package descriptions

// Tool descriptions shown to MCP clients.

const (
	FormFillDocumentDescription = `Fill a blank PDF form with values found in donor documents.

**When to use:** You have a blank form (application, intake sheet, claim form) and one or more documents that contain the answers.

**How it works:** The form's text is analyzed to infer its fields, donor PDFs and text files are read in order, each field is matched to a donor value, and a filled copy of the form is written to output_path.

**Examples:**
• Intake forms: "Fill intake-blank.pdf from passport.pdf and notes.txt into intake-filled.pdf"
• Re-filing: "Fill claim-2024.pdf using last-year-claim.pdf as the donor"

**Result:** JSON with status, message, output_path, field_count (fields found on the form) and mapped_fields (values matched).

**Notes:** Unreadable donors are skipped, not fatal. Field appearances are not regenerated, so some viewers show new values only after the field is focused.`

	PDFFormFieldsDescription = `List the interactive form fields of a PDF with their types and current values.

**When to use:** Check which fields a template exposes before filling it, or verify the values written by form_fill_document.

**Examples:**
• "Which fields does intake-blank.pdf have?"
• "Show the values in intake-filled.pdf"`

	PDFExtractTextDescription = `Extract the plain text of every page of a PDF, in page order.

**When to use:** Inspect what text a template or donor document yields before running form_fill_document.

**Examples:**
• "What text does passport.pdf contain?"`
)
