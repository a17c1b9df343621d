package descriptions

// Tool descriptions shown to MCP clients

const (
	ReportExtractFileDescription = `Extract the structured fields of one lung CT analysis report (StratX, Thirona or LungQ PDF).

**When to use:** You have a single report PDF and need its patient id, scan id, dates, comments, status and the four six-region result panels.

**Returns:** A JSON record. Absent values are null. "status" is one of OK, WARNING, NOT_USABLE, PARSE_FAILED, READ_FAILED; "reason" explains a READ_FAILED status.

**Examples:**
• "Extract the fissure completeness values from /data/Leiden/batch1/StratX_0042.pdf"
• "What is the scan status of report-17.pdf?"

**Best practices:** Use report_columns to map record fields onto the CSV export layout.`

	ReportScanDirectoryDescription = `Process every PDF report under a directory tree and summarise the outcome without writing any files.

**When to use:** Check a batch before exporting it: how many reports parse cleanly, which sites have unusable scans, which columns are often empty.

**Returns:** Status counts in fixed order (OK, WARNING, NOT_USABLE, PARSE_FAILED, READ_FAILED), duplicates skipped, vendor counts, completeness per site and per column.

**Examples:**
• "Summarise the reports under /data/trial-2024"
• "Which sites have the most Not Usable scans?"

**Best practices:** Leave directory empty to scan the configured root. Duplicate report keys keep the first document in path order.`

	ReportColumnsDescription = `List the CSV export columns in order.

**When to use:** Interpreting an exported CSV or lining up report_extract_file output with spreadsheet columns.

**Returns:** One column name per line. With include_location the Site and Folder Name columns come first.`
)
