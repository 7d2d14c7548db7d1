package jit

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/colorfulnotion/hostjit/bytecode"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"golang.org/x/exp/slices"
)

type SiteReport struct {
	Label    int    `json:"label"`
	Jmp      int    `json:"jmp"`
	Kind     string `json:"kind"`
	Backward bool   `json:"backward"`
	CodePos  int    `json:"code_pos"`
}

// Report describes one translation for tooling.
type Report struct {
	Program     string            `json:"program"`
	Words       int               `json:"words"`
	HeaderSize  int               `json:"header_size"`
	EpiloguePos int               `json:"epilogue_pos"`
	Relocs      []Reloc           `json:"relocs"`
	Stats       *TranslationStats `json:"stats"`
	Sites       []SiteReport      `json:"sites"`
}

func NewReport(p *bytecode.Program, code *Code, labels *LabelTable) *Report {
	r := &Report{
		Program:     p.Hash().Hex(),
		Words:       p.Len(),
		HeaderSize:  code.HeaderSize,
		EpiloguePos: code.EpiloguePos,
		Relocs:      code.Relocs,
		Stats:       code.Stats,
		Sites:       []SiteReport{},
	}
	if labels != nil {
		for _, s := range labels.Sites() {
			r.Sites = append(r.Sites, SiteReport{Label: s.Label, Jmp: s.Jmp, Kind: s.Kind.String(), Backward: s.Backward(), CodePos: s.CodePos})
		}
	}
	return r
}

func (r *Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// RenderChart writes an HTML page with native bytes and instruction counts per opcode.
func (r *Report) RenderChart(w io.Writer) error {
	names := make([]string, 0, len(r.Stats.BytesPerOpcode))
	for name := range r.Stats.BytesPerOpcode {
		names = append(names, name)
	}
	slices.Sort(names)

	bytesData := make([]opts.BarData, 0, len(names))
	countData := make([]opts.BarData, 0, len(names))
	for _, name := range names {
		bytesData = append(bytesData, opts.BarData{Value: r.Stats.BytesPerOpcode[name]})
		countData = append(countData, opts.BarData{Value: r.Stats.CountPerOpcode[name]})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Native code per opcode",
			Subtitle: fmt.Sprintf("%d words, %d bytes, %d forward / %d backward sites", r.Words, r.Stats.CodeBytes, r.Stats.ForwardSites, r.Stats.BackwardSites),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(names).
		AddSeries("bytes", bytesData).
		AddSeries("count", countData)

	page := components.NewPage()
	page.AddCharts(bar)
	return page.Render(w)
}
