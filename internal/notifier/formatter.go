package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"
	"unicode/utf8"

	"TrendSentinel/internal/model"
)

// MaxMessageLen is the Bot API limit for a single message.
const MaxMessageLen = 4096

// maxSkipLines caps how many skip reasons are listed in a report.
const maxSkipLines = 15

// FormatScreenReport formats a finished screen run into a Telegram message.
func FormatScreenReport(r *model.ScreenReport) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📈 <b>Trend Template</b> | %s\n\n", r.Date.Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("Benchmark %s: %+.2f%%\n", html.EscapeString(r.Benchmark), r.BenchmarkReturn))
	b.WriteString(fmt.Sprintf("Universe: %d | Evaluated: %d | Skipped: %d\n",
		r.UniverseSize, r.Evaluated, len(r.Skips)))
	b.WriteString(fmt.Sprintf("Passed: <b>%d</b> (%s)\n\n", len(r.Results), r.Duration.Round(time.Second)))

	if len(r.Results) == 0 {
		b.WriteString("No ticker met all 8 conditions.\n")
	} else {
		b.WriteString("<pre>")
		b.WriteString(fmt.Sprintf("%-6s %6s %9s %9s %9s\n", "Ticker", "RS", "Close", "SMA50", "SMA200"))
		for _, res := range r.Results {
			ind := res.Indicators
			b.WriteString(fmt.Sprintf("%-6s %6.2f %9.2f %9.2f %9.2f\n",
				html.EscapeString(res.Ticker), ind.RSRating, ind.CurrentClose, ind.SMA50, ind.SMA200))
		}
		b.WriteString("</pre>\n")
	}

	if len(r.Skips) > 0 {
		b.WriteString("\n⚠️ <b>Skipped</b>\n")
		for i, sk := range r.Skips {
			if i == maxSkipLines {
				b.WriteString(fmt.Sprintf("  … and %d more\n", len(r.Skips)-maxSkipLines))
				break
			}
			b.WriteString(fmt.Sprintf("  #%d %s: %s\n", sk.Counter, html.EscapeString(sk.Ticker), html.EscapeString(sk.Reason)))
		}
	}

	return b.String()
}

// FormatTicker formats a single passing row.
func FormatTicker(res model.ScreeningResult) string {
	ind := res.Indicators
	var b strings.Builder
	b.WriteString(fmt.Sprintf("✅ <b>%s</b> | %s\n\n", html.EscapeString(res.Ticker), res.Date.Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("RS Rating: %.2f\n", ind.RSRating))
	b.WriteString(fmt.Sprintf("Close: %.2f\n", ind.CurrentClose))
	b.WriteString(fmt.Sprintf("SMA50: %.2f | SMA150: %.2f | SMA200: %.2f\n", ind.SMA50, ind.SMA150, ind.SMA200))
	b.WriteString(fmt.Sprintf("SMA200 20d ago: %.2f\n", ind.SMA200Prior))
	b.WriteString(fmt.Sprintf("52w range: %.2f – %.2f\n", ind.Low52w, ind.High52w))
	return b.String()
}

// FormatRunFailure formats a run that aborted before producing a report.
func FormatRunFailure(err error) string {
	return fmt.Sprintf("❌ <b>Screen failed</b>\n\n%s", html.EscapeString(err.Error()))
}

// SplitMessage breaks text into chunks of at most limit bytes, cutting on newlines where possible.
// A <pre> block that spans a cut is closed and reopened so each chunk stays valid HTML.
func SplitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}
	const reserve = len("</pre>") + len("<pre>")

	var chunks []string
	var cur strings.Builder
	inPre := false

	flush := func() {
		if cur.Len() == 0 {
			return
		}
		s := cur.String()
		if inPre {
			s += "</pre>"
		}
		chunks = append(chunks, s)
		cur.Reset()
		if inPre {
			cur.WriteString("<pre>")
		}
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		for len(line) > limit-reserve {
			flush()
			n := safeCut(line, limit-reserve)
			cur.WriteString(line[:n])
			line = line[n:]
		}
		if cur.Len()+len(line)+reserve > limit {
			flush()
		}
		cur.WriteString(line)
		if strings.Contains(line, "<pre>") {
			inPre = true
		}
		if strings.Contains(line, "</pre>") {
			inPre = false
		}
	}
	if cur.Len() > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}

// safeCut returns a cut offset no greater than max that falls on a rune
// boundary and outside an HTML entity or tag. len(s) must exceed max.
func safeCut(s string, max int) int {
	n := max
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	if i := strings.LastIndexAny(s[:n], "&<"); i > 0 {
		closer := ";"
		if s[i] == '<' {
			closer = ">"
		}
		if !strings.Contains(s[i:n], closer) {
			n = i
		}
	}
	if n == 0 {
		return max
	}
	return n
}
