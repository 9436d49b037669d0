package descriptions

import "sort"

// Tool descriptions with practical examples and use cases

const (
	// Session Tools
	IntakeInfoDescription = `Show the intake session configuration and the files available for upload.

**When to use:** At the start of a session, to learn which document types are accepted, the size and count limits, and which files in the upload directory qualify. PDFs that will need a password are marked "(password protected)".

**Examples:**
• "What can I upload?" → intake_info
• "Which PDFs in the folder are eligible?" → intake_info, then intake_add_files

**Best practices:** Call this first; the caption it returns (e.g. "PDF, PNG, JPG, GIF (max. 6MB)") is what the user sees in the upload area.`

	IntakeStateDescription = `Report the current slots, their verification status and whether the form can be submitted.

**When to use:** After any change, to see what the user would see: slot names, sizes, encrypted PDFs still waiting for a password, warnings from verification and the last validation message.

**Submittable means:** at least one file, every encrypted PDF has a password, and no slot carries a verification warning.`

	// Requirement Tools
	IntakeOptionsDescription = `List the document types that can be selected, with the number of files each allows.

**When to use:** Before intake_select_requirement, to show the user the dropdown choices.`

	IntakeSelectRequirementDescription = `Select the document type being collected.

**When to use:** When the user picks an entry from the document type list.

**Important:** Selecting a requirement clears every uploaded file, because files collected for one document type do not satisfy another. The slot limit, header text and verification endpoint follow the selection. Unknown keys are rejected and leave the selection unchanged.`

	IntakeSetEmploymentStatusDescription = `Rebuild the document type list from the applicant's employment status.

**Examples:**
• "Self-Employed / Business Owner" → income tax return, bank, credit card and loan statements
• "Employed - Private" or "Employed - Government" → payslips, certificate of employment and statements

**Best practices:** Call before intake_select_requirement; a current selection is kept only if it is still offered.`

	// File Tools
	IntakeAddFilesDescription = `Add one or more files from the upload directory as a single selection.

**When to use:** When the user picks files to upload.

**Validation:** The whole selection is rejected, with one message, if it would exceed the slot limit, if any file is larger than the size limit, if any name is already uploaded, or if any type is not accepted. Images are resized to fit 1024x1024 and re-encoded. PDFs are scanned for encryption; encrypted ones need intake_set_password before submission.`

	IntakeRemoveFileDescription = `Remove an uploaded file by name.

**Note:** Removing a file discards the current verification results, because the remaining files move up one position.`

	IntakeSetPasswordDescription = `Set the password for an encrypted PDF.

**When to use:** After intake_add_files reports an encrypted PDF, or after verification reports "Invalid Password" for a slot.

**Note:** Editing a password clears that slot's warning until the next verification results arrive.`

	// Verification Tools
	IntakeApplyResultsDescription = `Apply verification results returned by the document verification service.

**Format:** JSON array of {"code": "1X", "message": "Invalid Password"} objects. The leading digit of code is the 1-based slot position; an explicit "ordinal" field overrides it. Entries with an empty code are ignored.

**Effect:** Each new result set replaces the previous one entirely; slots without a result pass.`

	IntakeVerifyDescription = `Verify the uploaded files locally and apply the results.

**When to use:** To check that every PDF opens with its password and has pages, and that every image decodes, before handing the submission to the remote service.

**Result codes:** {n}X Invalid Password, {n}C Unable to read document, {n}E Document has no pages.`

	IntakeSubmissionDescription = `Build the submission payload for the verification service.

**Contains:** comma-joined data URLs, file names (commas removed), file sizes, the verification endpoint of the selected document type, and the passwords joined by "|~|". Marks every file as processed.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	"intake_info":                  IntakeInfoDescription,
	"intake_state":                 IntakeStateDescription,
	"intake_options":               IntakeOptionsDescription,
	"intake_select_requirement":    IntakeSelectRequirementDescription,
	"intake_set_employment_status": IntakeSetEmploymentStatusDescription,
	"intake_add_files":             IntakeAddFilesDescription,
	"intake_remove_file":           IntakeRemoveFileDescription,
	"intake_set_password":          IntakeSetPasswordDescription,
	"intake_apply_results":         IntakeApplyResultsDescription,
	"intake_verify":                IntakeVerifyDescription,
	"intake_submission":            IntakeSubmissionDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns the tool names in sorted order
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
