// Package report defines the run report and writes it to disk.
package report

import (
	"time"

	"github.com/dgallion1/docrank/internal/query"
)

// TimestampLayout is the layout of Metadata.ProcessingTimestamp.
const TimestampLayout = "2006-01-02 15:04:05"

type Report struct {
	Metadata           Metadata             `json:"metadata" yaml:"metadata"`
	ExtractedSections  []ExtractedSection   `json:"extracted_sections" yaml:"extracted_sections"`
	SubSectionAnalysis []SubsectionAnalysis `json:"sub_section_analysis" yaml:"sub_section_analysis"`

	// GeneratedAt is the instant ProcessingTimestamp was taken from. It
	// also names the output file.
	GeneratedAt time.Time `json:"-" yaml:"-"`
}

type Metadata struct {
	InputDocuments      []string      `json:"input_documents" yaml:"input_documents"`
	Persona             query.Persona `json:"persona" yaml:"persona"`
	JobToBeDone         string        `json:"job_to_be_done" yaml:"job_to_be_done"`
	ProcessingTimestamp string        `json:"processing_timestamp" yaml:"processing_timestamp"`
}

// ExtractedSection is one selected section. ImportanceRank is 1-based and
// unique within a document.
type ExtractedSection struct {
	Document       string `json:"document" yaml:"document"`
	PageNumber     int    `json:"page_number" yaml:"page_number"`
	SectionTitle   string `json:"section_title" yaml:"section_title"`
	ImportanceRank int    `json:"importance_rank" yaml:"importance_rank"`
}

// SubsectionAnalysis is one refined fragment of a selected section.
type SubsectionAnalysis struct {
	Document    string `json:"document" yaml:"document"`
	PageNumber  int    `json:"page_number" yaml:"page_number"`
	RefinedText string `json:"refined_text" yaml:"refined_text"`
}

// New returns an empty report stamped with at. Result lists are empty,
// never nil, so they serialize as [].
func New(inputs []string, p query.Persona, job string, at time.Time) *Report {
	docs := make([]string, len(inputs))
	copy(docs, inputs)
	return &Report{
		Metadata: Metadata{
			InputDocuments:      docs,
			Persona:             p,
			JobToBeDone:         job,
			ProcessingTimestamp: at.Format(TimestampLayout),
		},
		ExtractedSections:  []ExtractedSection{},
		SubSectionAnalysis: []SubsectionAnalysis{},
		GeneratedAt:        at,
	}
}
