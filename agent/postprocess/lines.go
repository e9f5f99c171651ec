package postprocess

import (
	"regexp"
	"strings"
)

var (
	numberedRe = regexp.MustCompile(`^\d+[.)]\s+`)
	sentenceRe = regexp.MustCompile(`[^.!?]*[.!?]+|[^.!?]+$`)
)

var bulletMarks = []string{"-", "*", "•", "–", "—"}

// filler phrases never count as an idea when harvesting prose.
var filler = []string{"here are", "here's", "based on", "tool facts", "summary", "let me know", "hope this", "enjoy"}

type parsed struct {
	items []string
	prose []string
}

// bulletText returns the content of a bullet or numbered line.
func bulletText(line string) (string, bool) {
	s := strings.TrimSpace(line)
	if loc := numberedRe.FindStringIndex(s); loc != nil {
		return strings.TrimSpace(s[loc[1]:]), true
	}
	for _, m := range bulletMarks {
		if strings.HasPrefix(s, m+" ") || strings.HasPrefix(s, m+"\t") {
			return strings.TrimSpace(s[len(m):]), true
		}
	}
	return "", false
}

// parse splits a reply into bullet items and the remaining prose lines.
// Indented lines right after a bullet continue that bullet.
func parse(text string) parsed {
	var p parsed
	inBullet := false
	for _, line := range strings.Split(text, "\n") {
		s := strings.TrimSpace(line)
		if s == "" {
			inBullet = false
			continue
		}
		if item, ok := bulletText(s); ok {
			if item != "" {
				p.items = append(p.items, item)
				inBullet = true
			}
			continue
		}
		if inBullet && line != strings.TrimLeft(line, " \t") {
			p.items[len(p.items)-1] += " " + s
			continue
		}
		inBullet = false
		p.prose = append(p.prose, s)
	}
	return p
}

// splitQuestion removes question sentences from s and returns the first one.
func splitQuestion(s string) (rest, question string) {
	if !strings.Contains(s, "?") {
		return strings.TrimSpace(s), ""
	}
	var b strings.Builder
	for _, sentence := range sentenceRe.FindAllString(s, -1) {
		if strings.Contains(sentence, "?") {
			if question == "" {
				question = strings.TrimSpace(sentence)
			}
			continue
		}
		b.WriteString(sentence)
	}
	return strings.TrimSpace(b.String()), question
}

// harvest collects declarative sentences from prose lines.
func harvest(prose []string) []string {
	var out []string
	for _, line := range prose {
		if strings.HasSuffix(line, ":") {
			continue
		}
		for _, sentence := range sentenceRe.FindAllString(line, -1) {
			sentence = strings.TrimSpace(sentence)
			if sentence == "" || strings.Contains(sentence, "?") || isFiller(sentence) {
				continue
			}
			out = append(out, strings.TrimRight(sentence, "."))
		}
	}
	return out
}

func isFiller(s string) bool {
	low := strings.ToLower(s)
	for _, f := range filler {
		if strings.Contains(low, f) {
			return true
		}
	}
	return false
}

// dropQuestions keeps at most keep question sentences and removes the rest.
func dropQuestions(text string, keep int) string {
	var out []string
	kept := 0
	for _, line := range strings.Split(text, "\n") {
		if !strings.Contains(line, "?") {
			out = append(out, line)
			continue
		}
		var b strings.Builder
		for _, sentence := range sentenceRe.FindAllString(line, -1) {
			if strings.Contains(sentence, "?") {
				if kept >= keep {
					continue
				}
				kept++
			}
			b.WriteString(sentence)
		}
		rest := strings.TrimRight(b.String(), " \t")
		if t := strings.TrimSpace(rest); t == "" || containsFold(bulletMarks, t) || numberedRe.MatchString(t+" ") {
			continue
		}
		out = append(out, rest)
	}
	return collapse(out)
}

// collapse joins lines, squeezing runs of blank lines into one.
func collapse(lines []string) string {
	var out []string
	blank := false
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

func bulletList(items []string) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "- " + item
	}
	return strings.Join(lines, "\n")
}

func appendUnique(dst, src []string, limit int) []string {
	for _, s := range src {
		if len(dst) >= limit {
			break
		}
		if s == "" || containsFold(dst, s) {
			continue
		}
		dst = append(dst, s)
	}
	return dst
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
