package sales

import (
	"github.com/shopspring/decimal"
)

// Stage is one column of the pipeline board. Value is keyed by currency;
// amounts in different currencies are never added together.
type Stage struct {
	Status QuotationStatus            `json:"status"`
	Count  int                        `json:"count"`
	Value  map[string]decimal.Decimal `json:"value"`
}

// Pipeline summarises quotations by stage.
type Pipeline struct {
	Stages         []Stage                    `json:"stages"`
	OpenActivities int                        `json:"openActivities"`
	OpenValue      map[string]decimal.Decimal `json:"openValue"`
	// ConversionRate is converted / (converted + rejected + expired), 0 when
	// nothing has closed yet.
	ConversionRate decimal.Decimal `json:"conversionRate"`
}

// BuildPipeline aggregates quotations and activities into a Pipeline.
func BuildPipeline(quotes []Quotation, activities []Activity) Pipeline {
	byStatus := make(map[QuotationStatus]*Stage, len(PipelineStages))
	stages := make([]Stage, len(PipelineStages))
	for i, st := range PipelineStages {
		stages[i] = Stage{Status: st, Value: map[string]decimal.Decimal{}}
		byStatus[st] = &stages[i]
	}
	for _, q := range quotes {
		s, ok := byStatus[q.Status]
		if !ok {
			continue
		}
		s.Count++
		s.Value[q.Currency] = s.Value[q.Currency].Add(q.Total)
	}

	p := Pipeline{Stages: stages, OpenValue: map[string]decimal.Decimal{}, ConversionRate: decimal.Zero}
	for _, st := range []QuotationStatus{QuotationDraft, QuotationSent, QuotationAccepted} {
		for currency, v := range byStatus[st].Value {
			p.OpenValue[currency] = p.OpenValue[currency].Add(v)
		}
	}
	won := byStatus[QuotationConverted].Count
	closed := won + byStatus[QuotationRejected].Count + byStatus[QuotationExpired].Count
	if closed > 0 {
		p.ConversionRate = decimal.NewFromInt(int64(won)).
			Div(decimal.NewFromInt(int64(closed))).
			Round(4)
	}
	for _, a := range activities {
		if a.Open() {
			p.OpenActivities++
		}
	}
	return p
}
