package model

// PlaceholderFirmName names firms created implicitly for orphaned patents.
const PlaceholderFirmName = "New Firm"

// Firm is a firm and its patent holdings, ordered by patent ID.
type Firm struct {
	FirmID  string   `json:"firm_id" yaml:"firm_id"`
	Name    string   `json:"name" yaml:"name"`
	Patents []Patent `json:"patents" yaml:"patents"`
}

// PatentCount returns the number of patents the firm holds.
func (f *Firm) PatentCount() int {
	return len(f.Patents)
}

// Summary returns the roster view of the firm.
func (f *Firm) Summary() FirmSummary {
	return FirmSummary{FirmID: f.FirmID, Name: f.Name, PatentCount: len(f.Patents)}
}

// FirmSummary is the roster line for a firm.
type FirmSummary struct {
	FirmID      string `json:"firm_id" yaml:"firm_id"`
	Name        string `json:"name" yaml:"name"`
	PatentCount int    `json:"patent_count" yaml:"patent_count"`
}
