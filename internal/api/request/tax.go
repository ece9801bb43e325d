package request

// GenerateTaxReportRequest is the payload for generating a tax report.
// Dates are inclusive and accept YYYY-MM-DD or RFC3339.
type GenerateTaxReportRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}
