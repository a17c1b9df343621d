package report

// Document is the extracted text of one report together with where it came from.
type Document struct {
	FileName string
	Text     string
	Location Location
}

// Assemble runs the full extraction pipeline over one document's text.
// The text is normalized once and handed to both extractors; the resulting
// record always carries all four panels.
func Assemble(doc Document) Record {
	text := Normalize(doc.Text)

	header := ExtractHeader(text, doc.FileName)
	panels, strategy := ExtractResults(text)

	rec := Record{
		Location: doc.Location,
		Header:   header,
		Panels:   panels.Filled(),
		Strategy: strategy,
	}
	rec.Status = finalStatus(header.Status, rec.Panels)
	return rec
}

// finalStatus applies the precedence NOT_USABLE > WARNING > PARSE_FAILED > OK.
// READ_FAILED never reaches here.
func finalStatus(marker Status, panels Panels) Status {
	if marker != StatusOK {
		return marker
	}
	if panels.MissingAny() {
		return StatusParseFailed
	}
	return StatusOK
}

// ReadFailed builds the record for a document whose text could not be
// obtained. Only the file name and location are kept.
func ReadFailed(fileName string, loc Location, err error) Record {
	rec := Record{
		Location: loc,
		Header: Header{
			FileName: fileName,
			Status:   StatusReadFailed,
			Vendor:   VendorUnknown,
		},
		Panels:   Panels{}.Filled(),
		Strategy: StrategyNone,
	}
	if err != nil {
		rec.Reason = err.Error()
	}
	return rec
}
