package notifyportfolio

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

func subject(in *Input) string {
	return printer.Sprintf("Portfolio report %s: %s", in.BatchID, in.Status)
}

func body(in *Input) string {
	name := in.BatchName
	if name == "" {
		name = in.BatchID
	}
	return printer.Sprintf(
		"Batch: %s\nStatus: %s\nApplicants scored: %d of %d\nAverage score: %.2f\nPASS: %d  WARN: %d  FAIL: %d\n",
		name, in.Status,
		in.TotalRecords, max(in.RecordsSeen, in.TotalRecords),
		in.AverageScore,
		in.Distribution.Pass, in.Distribution.Warn, in.Distribution.Fail,
	)
}
