package usecase

import (
	"strings"

	"ddns-telegram-relay/internal/domain/model"
)

// Translator resolves user-facing message keys.
type Translator interface {
	T(key string, args ...interface{}) string
}

// ReportFormatter renders an IPUpdateReport as a Telegram Markdown message.
// Output depends only on the report and the locale.
type ReportFormatter struct {
	tr Translator
}

func NewReportFormatter(tr Translator) *ReportFormatter {
	return &ReportFormatter{tr: tr}
}

var valueReplacer = strings.NewReplacer("`", "'", "\r", " ", "\n", " ")

func (f *ReportFormatter) Format(rep *model.IPUpdateReport) string {
	var b strings.Builder
	b.WriteString(f.tr.T("notify_title"))
	b.WriteString("\n")

	detailed := false
	families := []struct {
		labelKey string
		report   *model.AddressReport
	}{
		{"notify_family_ipv4", rep.IPv4},
		{"notify_family_ipv6", rep.IPv6},
	}
	for _, fam := range families {
		if fam.report == nil {
			continue
		}
		b.WriteString("\n")
		b.WriteString(f.tr.T(fam.labelKey))
		b.WriteString("\n")
		f.line(&b, "notify_result", string(fam.report.Result))

		switch fam.report.Result {
		case model.ResultOK:
			f.line(&b, "notify_address", orDash(fam.report.Addr))
			f.line(&b, "notify_domains", orDash(fam.report.Domains))
			detailed = true
		case model.ResultFail:
			// ddns-go puts the failure reason in addr for this state
			diag := strings.TrimSpace(fam.report.Addr)
			if diag == "" {
				diag = f.tr.T("notify_unknown_error")
			}
			f.line(&b, "notify_error", diag)
			if strings.TrimSpace(fam.report.Domains) != "" {
				f.line(&b, "notify_domains", fam.report.Domains)
			}
			detailed = true
		}
	}

	if !detailed {
		b.WriteString("\n")
		b.WriteString(f.tr.T("notify_no_change"))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (f *ReportFormatter) line(b *strings.Builder, labelKey, value string) {
	b.WriteString("  ")
	b.WriteString(f.tr.T(labelKey))
	b.WriteString(": `")
	b.WriteString(valueReplacer.Replace(strings.TrimSpace(value)))
	b.WriteString("`\n")
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
