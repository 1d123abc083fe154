package css

import (
	"bytes"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// Parser parses stylesheet text into an ordered list of rules.
//
// Parsing is best-effort and never fails: comments are stripped, flat
// "selectorList { declarations }" blocks are recognized, at-rules (@media,
// @import, @font-face and friends) are skipped together with their blocks,
// and malformed fragments are dropped at the smallest possible granularity.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new stylesheet parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

// Parse parses CSS text into rules in source order. The optional source
// parameter identifies what is being parsed (for debug logging only).
// Rules whose declaration block yields no valid declarations are discarded.
func (p *Parser) Parse(data []byte, source ...string) []Rule {
	if len(source) > 0 && source[0] != "" {
		p.log.Debug("Parsing CSS", zap.String("source", source[0]), zap.Int("bytes", len(data)))
	}

	var (
		rules []Rule
		// grouped selectors arrive one per grammar event, final one with
		// the ruleset itself
		group []string
	)

	input := parse.NewInput(bytes.NewReader(data))
	parser := css.NewParser(input, false)

	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar:
			if err := parser.Err(); err != nil && err.Error() != "EOF" {
				p.log.Debug("CSS parse ended", zap.Error(err))
			}
			return rules

		case css.BeginAtRuleGrammar:
			// Nested rules, @media blocks and other at-rules are not
			// recognized; skip the whole block.
			p.log.Debug("Skipping @-rule block", zap.String("rule", string(data)))
			p.skipBlock(parser)
			group = group[:0]

		case css.AtRuleGrammar:
			p.log.Debug("Skipping @-rule", zap.String("rule", string(data)))
			group = group[:0]

		case css.QualifiedRuleGrammar:
			if sel := assembleSelector(data, parser.Values()); sel != "" {
				group = append(group, sel)
			}

		case css.BeginRulesetGrammar:
			if sel := assembleSelector(data, parser.Values()); sel != "" {
				group = append(group, sel)
			}
			selector := strings.Join(group, ", ")
			group = group[:0]

			decls := p.parseDeclarations(parser)
			if selector == "" {
				continue
			}
			if decls.Len() == 0 {
				p.log.Debug("Dropping rule without declarations", zap.String("selector", selector))
				continue
			}
			rules = append(rules, Rule{Selector: selector, Declarations: decls})
		}
	}
}

// assembleSelector rebuilds the selector list text from parser tokens,
// preserving it verbatim apart from outer whitespace.
func assembleSelector(data []byte, values []css.Token) string {
	var sb strings.Builder
	sb.Write(data)
	for _, v := range values {
		sb.Write(v.Data)
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(sb.String()), ","))
}

// parseDeclarations consumes declarations until the end of the ruleset.
func (p *Parser) parseDeclarations(parser *css.Parser) *Declarations {
	decls := NewDeclarations()

	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar, css.EndRulesetGrammar:
			return decls

		case css.DeclarationGrammar:
			prop := strings.TrimSpace(string(data))
			value := assembleValue(parser.Values())
			if prop == "" || value == "" {
				continue
			}
			decls.Set(prop, value)

		case css.CustomPropertyGrammar:
			// custom properties are never needed for inlining
			continue
		}
	}
}

// assembleValue joins value tokens back into a single string, collapsing
// whitespace runs to single spaces.
func assembleValue(tokens []css.Token) string {
	var parts []string
	for _, t := range tokens {
		if t.TokenType != css.WhitespaceToken {
			parts = append(parts, string(t.Data))
		} else if len(parts) > 0 && parts[len(parts)-1] != " " {
			parts = append(parts, " ")
		}
	}
	return strings.TrimSpace(strings.Join(parts, ""))
}

// skipBlock skips tokens until the matching end of an at-rule block.
func (p *Parser) skipBlock(parser *css.Parser) {
	depth := 1
	for depth > 0 {
		gt, _, _ := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			return
		case css.BeginAtRuleGrammar, css.BeginRulesetGrammar:
			depth++
		case css.EndAtRuleGrammar, css.EndRulesetGrammar:
			depth--
		}
	}
}
