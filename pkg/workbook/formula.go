package workbook

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/efp"
)

var cellRefPattern = regexp.MustCompile(`^(\$?)([A-Za-z]{1,3})(\$?)(\d+)$`)

// shiftFormula moves the relative row references of formula down by offset
// rows. Absolute rows, structured references and names are left alone.
func shiftFormula(formula string, offset int) string {
	if offset == 0 || formula == "" {
		return formula
	}

	ps := efp.ExcelParser()
	tokens := ps.Parse(formula)

	changed := false
	for i, token := range tokens {
		if token.TType == efp.TokenTypeFunction && strings.HasPrefix(token.TValue, "ARRAY") {
			// array constants do not render back faithfully
			return formula
		}
		if token.TType != efp.TokenTypeOperand || token.TSubType != efp.TokenSubTypeRange {
			continue
		}
		if shifted, ok := shiftReference(token.TValue, offset); ok {
			tokens[i].TValue = shifted
			changed = true
		}
	}
	if !changed {
		return formula
	}

	return render(tokens)
}

func shiftReference(ref string, offset int) (string, bool) {
	prefix, area := "", ref
	if i := strings.LastIndex(ref, "!"); i >= 0 {
		prefix, area = ref[:i+1], ref[i+1:]
	}

	parts := strings.Split(area, ":")
	changed := false
	for i, part := range parts {
		m := cellRefPattern.FindStringSubmatch(part)
		if m == nil {
			return ref, false
		}
		if m[3] == "$" {
			continue
		}
		row, err := strconv.Atoi(m[4])
		if err != nil {
			return ref, false
		}
		parts[i] = m[1] + m[2] + strconv.Itoa(row+offset)
		changed = true
	}

	return prefix + strings.Join(parts, ":"), changed
}

func render(tokens []efp.Token) string {
	var b strings.Builder
	for _, t := range tokens {
		switch {
		case t.TType == efp.TokenTypeFunction && t.TSubType == efp.TokenSubTypeStart:
			b.WriteString(t.TValue + "(")
		case t.TType == efp.TokenTypeSubexpression && t.TSubType == efp.TokenSubTypeStart:
			b.WriteString("(")
		case t.TSubType == efp.TokenSubTypeStop:
			b.WriteString(")")
		case t.TType == efp.TokenTypeOperand && t.TSubType == efp.TokenSubTypeText:
			b.WriteString(`"` + strings.ReplaceAll(t.TValue, `"`, `""`) + `"`)
		case t.TSubType == efp.TokenSubTypeIntersection:
			b.WriteString(" ")
		default:
			b.WriteString(t.TValue)
		}
	}
	return b.String()
}
