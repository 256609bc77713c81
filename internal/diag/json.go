package diag

import (
	"io"

	"github.com/bytedance/sonic"
)

// LocationJSON 诊断位置
type LocationJSON struct {
	File      string `json:"file"`
	StartByte int    `json:"start_byte"`
	EndByte   int    `json:"end_byte"`
	StartLine int    `json:"start_line"`
	StartCol  int    `json:"start_col"`
	EndLine   int    `json:"end_line"`
	EndCol    int    `json:"end_col"`
}

// NoteJSON 附加说明
type NoteJSON struct {
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
}

// DiagnosticJSON 单条诊断
type DiagnosticJSON struct {
	Severity string       `json:"severity"`
	Code     string       `json:"code"`
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
	Notes    []NoteJSON   `json:"notes,omitempty"`
}

// DiagnosticsOutput JSON 根结构
type DiagnosticsOutput struct {
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Count       int              `json:"count"`
}

func locationJSON(sp Span) LocationJSON {
	return LocationJSON{
		File:      sp.Start.Filename,
		StartByte: sp.Start.Offset,
		EndByte:   sp.End.Offset,
		StartLine: sp.Start.Line,
		StartCol:  sp.Start.Column,
		EndLine:   sp.End.Line,
		EndCol:    sp.End.Column,
	}
}

// ToJSON 转换为 JSON 结构
func ToJSON(diags []Diagnostic) DiagnosticsOutput {
	out := DiagnosticsOutput{
		Diagnostics: make([]DiagnosticJSON, 0, len(diags)),
		Count:       len(diags),
	}
	for _, d := range diags {
		dj := DiagnosticJSON{
			Severity: "error",
			Code:     d.Kind.String(),
			Message:  d.Message,
			Location: locationJSON(d.Span),
		}
		for _, n := range d.Notes {
			dj.Notes = append(dj.Notes, NoteJSON{Message: n.Msg, Location: locationJSON(n.Span)})
		}
		out.Diagnostics = append(out.Diagnostics, dj)
	}
	return out
}

// JSON 以 JSON 格式输出诊断
func JSON(w io.Writer, diags []Diagnostic) error {
	data, err := sonic.ConfigStd.MarshalIndent(ToJSON(diags), "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
