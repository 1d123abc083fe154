package course

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// Answer is one selectable choice of a question.
type Answer struct {
	ID      string
	Text    string
	Correct bool
}

// Blank is one fill-in slot with its acceptable answers.
type Blank struct {
	Name    string
	Answers []string
}

// Dropdown is one embedded selection with its options.
type Dropdown struct {
	Name    string
	Options []Answer
}

// MatchPair is one prompt with its correct answer.
type MatchPair struct {
	Prompt string
	Answer string
}

// NumericRange is an inclusive answer interval.
type NumericRange struct {
	Min float64
	Max float64
}

// FormulaVariable is one calculated-question variable with its value range.
type FormulaVariable struct {
	Name string
	Min  float64
	Max  float64
}

type questionBase struct {
	Identifier     string
	Text           string
	PointsPossible float64
}

func (b questionBase) Ident() string   { return b.Identifier }
func (b questionBase) Points() float64 { return b.PointsPossible }

func newQuestionBase(ids *IDSource, text string, points float64) questionBase {
	return questionBase{Identifier: ids.Hex(), Text: text, PointsPossible: points}
}

// MultipleChoiceQuestion has exactly one correct answer.
type MultipleChoiceQuestion struct {
	questionBase
	Answers []Answer
}

// NewMultipleChoiceQuestion mints answer identifiers for answers lacking
// one.
func NewMultipleChoiceQuestion(ids *IDSource, text string, answers []Answer, points float64) *MultipleChoiceQuestion {
	for i := range answers {
		if answers[i].ID == "" {
			answers[i].ID = ids.UUID()
		}
	}
	return &MultipleChoiceQuestion{questionBase: newQuestionBase(ids, text, points), Answers: answers}
}

func (q *MultipleChoiceQuestion) appendQTI(section *etree.Element) {
	ids := make([]string, len(q.Answers))
	for i, a := range q.Answers {
		ids[i] = a.ID
	}

	item := qtiItem(section, q.Identifier)
	qtiItemMetadata(item,
		[2]string{"question_type", "multiple_choice_question"},
		[2]string{"points_possible", formatFloat(q.PointsPossible)},
		[2]string{"original_answer_ids", strings.Join(ids, ",")},
		[2]string{"assessment_question_identifierref", q.Identifier},
	)

	presentation := qtiPresentation(item, q.Text)
	choice := qtiResponseLid(presentation, "response1", "Single")
	for _, a := range q.Answers {
		qtiResponseLabel(choice, a.ID, a.Text, "text/html")
	}

	resp := qtiOutcomes(item)
	for _, a := range q.Answers {
		if a.Correct {
			cond := qtiRespCondition(resp, "No")
			qtiVarEqual(cond.CreateElement("conditionvar"), "response1", a.ID)
			qtiSetScore(cond, "100")
			break
		}
	}
}

// TrueFalseQuestion presents fixed True / False choices.
type TrueFalseQuestion struct {
	questionBase
	CorrectAnswer bool

	trueID  string
	falseID string
}

func NewTrueFalseQuestion(ids *IDSource, text string, correct bool, points float64) *TrueFalseQuestion {
	return &TrueFalseQuestion{
		questionBase:  newQuestionBase(ids, text, points),
		CorrectAnswer: correct,
		trueID:        ids.UUID(),
		falseID:       ids.UUID(),
	}
}

func (q *TrueFalseQuestion) appendQTI(section *etree.Element) {
	item := qtiItem(section, q.Identifier)
	qtiItemMetadata(item,
		[2]string{"question_type", "true_false_question"},
		[2]string{"points_possible", formatFloat(q.PointsPossible)},
		[2]string{"original_answer_ids", q.trueID + "," + q.falseID},
		[2]string{"assessment_question_identifierref", q.Identifier},
	)

	presentation := qtiPresentation(item, q.Text)
	choice := qtiResponseLid(presentation, "response1", "Single")
	qtiResponseLabel(choice, q.trueID, "True", "text/plain")
	qtiResponseLabel(choice, q.falseID, "False", "text/plain")

	resp := qtiOutcomes(item)
	cond := qtiRespCondition(resp, "No")
	correctID := q.falseID
	if q.CorrectAnswer {
		correctID = q.trueID
	}
	qtiVarEqual(cond.CreateElement("conditionvar"), "response1", correctID)
	qtiSetScore(cond, "100")
}

// FillInBlankQuestion accepts any of a list of short text answers.
type FillInBlankQuestion struct {
	questionBase
	Answers []string
}

func NewFillInBlankQuestion(ids *IDSource, text string, answers []string, points float64) *FillInBlankQuestion {
	return &FillInBlankQuestion{questionBase: newQuestionBase(ids, text, points), Answers: answers}
}

func (q *FillInBlankQuestion) appendQTI(section *etree.Element) {
	ids := make([]string, len(q.Answers))
	for i := range q.Answers {
		ids[i] = strconv.Itoa(i)
	}

	item := qtiItem(section, q.Identifier)
	qtiItemMetadata(item,
		[2]string{"question_type", "fill_in_multiple_blanks_question"},
		[2]string{"points_possible", formatFloat(q.PointsPossible)},
		[2]string{"original_answer_ids", strings.Join(ids, ",")},
		[2]string{"assessment_question_identifierref", q.Identifier},
	)

	presentation := qtiPresentation(item, q.Text)
	response := presentation.CreateElement("response_str")
	response.CreateAttr("ident", "response1")
	response.CreateAttr("rcardinality", "Single")
	response.CreateElement("render_fib")

	resp := qtiOutcomes(item)
	for _, answer := range q.Answers {
		cond := qtiRespCondition(resp, "No")
		qtiVarEqual(cond.CreateElement("conditionvar"), "response1", answer)
		qtiSetScore(cond, "100")
	}
}

// FillInMultipleBlanksQuestion fills several named slots embedded in the
// question text.
type FillInMultipleBlanksQuestion struct {
	questionBase
	Blanks []Blank
}

func NewFillInMultipleBlanksQuestion(ids *IDSource, text string, blanks []Blank, points float64) *FillInMultipleBlanksQuestion {
	return &FillInMultipleBlanksQuestion{questionBase: newQuestionBase(ids, text, points), Blanks: blanks}
}

func (q *FillInMultipleBlanksQuestion) appendQTI(section *etree.Element) {
	item := qtiItem(section, q.Identifier)
	qtiItemMetadata(item,
		[2]string{"question_type", "fill_in_multiple_blanks_question"},
		[2]string{"points_possible", formatFloat(q.PointsPossible)},
		[2]string{"assessment_question_identifierref", q.Identifier},
	)

	presentation := qtiPresentation(item, q.Text)
	for _, blank := range q.Blanks {
		response := presentation.CreateElement("response_str")
		response.CreateAttr("ident", blank.Name)
		response.CreateAttr("rcardinality", "Single")
		response.CreateElement("render_fib")
	}

	resp := qtiOutcomes(item)
	if len(q.Blanks) > 0 {
		score := strconv.Itoa(100 / len(q.Blanks))
		for _, blank := range q.Blanks {
			for _, answer := range blank.Answers {
				cond := qtiRespCondition(resp, "Yes")
				qtiVarEqual(cond.CreateElement("conditionvar"), blank.Name, answer)
				qtiSetScore(cond, score)
			}
		}
	}
}

// MultipleAnswersQuestion requires every correct choice to be selected.
type MultipleAnswersQuestion struct {
	questionBase
	Answers []Answer
}

func NewMultipleAnswersQuestion(ids *IDSource, text string, answers []Answer, points float64) *MultipleAnswersQuestion {
	return &MultipleAnswersQuestion{questionBase: newQuestionBase(ids, text, points), Answers: answers}
}

func (q *MultipleAnswersQuestion) appendQTI(section *etree.Element) {
	ids := make([]string, len(q.Answers))
	for i := range q.Answers {
		ids[i] = strconv.Itoa(i)
	}

	item := qtiItem(section, q.Identifier)
	qtiItemMetadata(item,
		[2]string{"question_type", "multiple_answers_question"},
		[2]string{"points_possible", formatFloat(q.PointsPossible)},
		[2]string{"original_answer_ids", strings.Join(ids, ",")},
		[2]string{"assessment_question_identifierref", q.Identifier},
	)

	presentation := qtiPresentation(item, q.Text)
	choice := qtiResponseLid(presentation, "response1", "Multiple")
	for i, a := range q.Answers {
		qtiResponseLabel(choice, strconv.Itoa(i), a.Text, "text/plain")
	}

	resp := qtiOutcomes(item)
	cond := qtiRespCondition(resp, "No")
	and := cond.CreateElement("conditionvar").CreateElement("and")
	for i, a := range q.Answers {
		if a.Correct {
			qtiVarEqual(and, "response1", strconv.Itoa(i))
		}
	}
	qtiSetScore(cond, "100")
}

// MultipleDropdownsQuestion embeds named single-choice dropdowns in the
// question text.
type MultipleDropdownsQuestion struct {
	questionBase
	Dropdowns []Dropdown
}

func NewMultipleDropdownsQuestion(ids *IDSource, text string, dropdowns []Dropdown, points float64) *MultipleDropdownsQuestion {
	return &MultipleDropdownsQuestion{questionBase: newQuestionBase(ids, text, points), Dropdowns: dropdowns}
}

func (q *MultipleDropdownsQuestion) appendQTI(section *etree.Element) {
	item := qtiItem(section, q.Identifier)
	qtiItemMetadata(item,
		[2]string{"question_type", "multiple_dropdowns_question"},
		[2]string{"points_possible", formatFloat(q.PointsPossible)},
		[2]string{"assessment_question_identifierref", q.Identifier},
	)

	presentation := qtiPresentation(item, q.Text)
	for _, dd := range q.Dropdowns {
		choice := qtiResponseLid(presentation, "response_"+dd.Name, "Single")
		for i, opt := range dd.Options {
			qtiResponseLabel(choice, dd.Name+"_"+strconv.Itoa(i), opt.Text, "text/plain")
		}
	}

	resp := qtiOutcomes(item)
	if len(q.Dropdowns) > 0 {
		score := strconv.Itoa(100 / len(q.Dropdowns))
		for _, dd := range q.Dropdowns {
			for i, opt := range dd.Options {
				if opt.Correct {
					cond := qtiRespCondition(resp, "Yes")
					qtiVarEqual(cond.CreateElement("conditionvar"), "response_"+dd.Name, dd.Name+"_"+strconv.Itoa(i))
					qtiSetScore(cond, score)
					break
				}
			}
		}
	}
}

// MatchingQuestion pairs prompts with answers drawn from a shared pool that
// may include distractors.
type MatchingQuestion struct {
	questionBase
	Matches     []MatchPair
	Distractors []string
}

func NewMatchingQuestion(ids *IDSource, text string, matches []MatchPair, distractors []string, points float64) *MatchingQuestion {
	return &MatchingQuestion{questionBase: newQuestionBase(ids, text, points), Matches: matches, Distractors: distractors}
}

func (q *MatchingQuestion) answerPool() []string {
	pool := make([]string, 0, len(q.Matches)+len(q.Distractors))
	for _, m := range q.Matches {
		pool = append(pool, m.Answer)
	}
	return append(pool, q.Distractors...)
}

func (q *MatchingQuestion) appendQTI(section *etree.Element) {
	item := qtiItem(section, q.Identifier)
	qtiItemMetadata(item,
		[2]string{"question_type", "matching_question"},
		[2]string{"points_possible", formatFloat(q.PointsPossible)},
		[2]string{"assessment_question_identifierref", q.Identifier},
	)

	pool := q.answerPool()
	presentation := qtiPresentation(item, q.Text)
	for i, m := range q.Matches {
		group := presentation.CreateElement("response_grp")
		group.CreateAttr("ident", "response_"+strconv.Itoa(i))
		group.CreateAttr("rcardinality", "Single")

		choice := group.CreateElement("render_choice")
		for j, answer := range pool {
			qtiResponseLabel(choice, "answer_"+strconv.Itoa(j), answer, "text/plain")
		}
		qtiMaterial(group, m.Prompt, "text/plain")
	}

	resp := qtiOutcomes(item)
	if len(q.Matches) > 0 {
		score := strconv.Itoa(100 / len(q.Matches))
		for i, m := range q.Matches {
			for j, answer := range pool {
				if answer == m.Answer {
					cond := qtiRespCondition(resp, "Yes")
					qtiVarEqual(cond.CreateElement("conditionvar"), "response_"+strconv.Itoa(i), "answer_"+strconv.Itoa(j))
					qtiSetScore(cond, score)
					break
				}
			}
		}
	}
}

// NumericalAnswerQuestion grades a number against an exact value with
// optional margin, or against an inclusive range.
type NumericalAnswerQuestion struct {
	questionBase
	Exact  *float64
	Margin float64
	Range  *NumericRange
}

func NewNumericalAnswerQuestion(ids *IDSource, text string, points float64) *NumericalAnswerQuestion {
	return &NumericalAnswerQuestion{questionBase: newQuestionBase(ids, text, points)}
}

func (q *NumericalAnswerQuestion) appendQTI(section *etree.Element) {
	item := qtiItem(section, q.Identifier)
	qtiItemMetadata(item,
		[2]string{"question_type", "numerical_question"},
		[2]string{"points_possible", formatFloat(q.PointsPossible)},
		[2]string{"assessment_question_identifierref", q.Identifier},
	)

	presentation := qtiPresentation(item, q.Text)
	qtiRenderFib(presentation, "Decimal")

	resp := qtiOutcomes(item)
	cond := qtiRespCondition(resp, "No")
	conditionvar := cond.CreateElement("conditionvar")

	switch {
	case q.Exact != nil && q.Margin > 0:
		qtiVarRange(conditionvar, *q.Exact-q.Margin, *q.Exact+q.Margin)
	case q.Exact != nil:
		qtiVarEqual(conditionvar, "response1", formatFloat(*q.Exact))
	case q.Range != nil:
		qtiVarRange(conditionvar, q.Range.Min, q.Range.Max)
	}
	qtiSetScore(cond, "100")
}

// FormulaQuestion carries its formula and variable ranges as metadata; the
// importing platform generates and grades the variants.
type FormulaQuestion struct {
	questionBase
	Formula   string
	Variables []FormulaVariable
	Tolerance float64
}

func NewFormulaQuestion(ids *IDSource, text, formula string, variables []FormulaVariable, points float64) *FormulaQuestion {
	return &FormulaQuestion{
		questionBase: newQuestionBase(ids, text, points),
		Formula:      formula,
		Variables:    variables,
		Tolerance:    0.01,
	}
}

func (q *FormulaQuestion) appendQTI(section *etree.Element) {
	fields := [][2]string{
		{"question_type", "calculated_question"},
		{"points_possible", formatFloat(q.PointsPossible)},
		{"assessment_question_identifierref", q.Identifier},
		{"formula_question_formula", q.Formula},
	}
	for _, v := range q.Variables {
		fields = append(fields,
			[2]string{"formula_variable_" + v.Name + "_min", formatFloat(v.Min)},
			[2]string{"formula_variable_" + v.Name + "_max", formatFloat(v.Max)},
		)
	}

	item := qtiItem(section, q.Identifier)
	qtiItemMetadata(item, fields...)

	presentation := qtiPresentation(item, q.Text)
	qtiRenderFib(presentation, "Decimal")
	qtiOutcomes(item)
}

// EssayQuestion collects long-form text; grading is manual.
type EssayQuestion struct {
	questionBase
}

func NewEssayQuestion(ids *IDSource, text string, points float64) *EssayQuestion {
	return &EssayQuestion{questionBase: newQuestionBase(ids, text, points)}
}

func (q *EssayQuestion) appendQTI(section *etree.Element) {
	item := qtiItem(section, q.Identifier)
	qtiItemMetadata(item,
		[2]string{"question_type", "essay_question"},
		[2]string{"points_possible", formatFloat(q.PointsPossible)},
		[2]string{"assessment_question_identifierref", q.Identifier},
	)

	presentation := qtiPresentation(item, q.Text)
	response := presentation.CreateElement("response_str")
	response.CreateAttr("ident", "response1")
	response.CreateAttr("rcardinality", "Single")
	fib := response.CreateElement("render_fib")
	fib.CreateAttr("fibtype", "String")
	fib.CreateAttr("rows", "10")
	fib.CreateAttr("columns", "80")

	qtiOutcomes(item)
}

// FileUploadQuestion collects a submitted file; grading is manual.
type FileUploadQuestion struct {
	questionBase
}

func NewFileUploadQuestion(ids *IDSource, text string, points float64) *FileUploadQuestion {
	return &FileUploadQuestion{questionBase: newQuestionBase(ids, text, points)}
}

func (q *FileUploadQuestion) appendQTI(section *etree.Element) {
	item := qtiItem(section, q.Identifier)
	qtiItemMetadata(item,
		[2]string{"question_type", "file_upload_question"},
		[2]string{"points_possible", formatFloat(q.PointsPossible)},
		[2]string{"assessment_question_identifierref", q.Identifier},
	)

	presentation := qtiPresentation(item, q.Text)
	qtiRenderFib(presentation, "File")
	qtiOutcomes(item)
}

// TextOnlyQuestion displays information and is worth no points.
type TextOnlyQuestion struct {
	questionBase
}

func NewTextOnlyQuestion(ids *IDSource, text string) *TextOnlyQuestion {
	return &TextOnlyQuestion{questionBase: newQuestionBase(ids, text, 0)}
}

func (q *TextOnlyQuestion) appendQTI(section *etree.Element) {
	item := qtiItem(section, q.Identifier)
	qtiItemMetadata(item,
		[2]string{"question_type", "text_only_question"},
		[2]string{"points_possible", "0"},
		[2]string{"assessment_question_identifierref", q.Identifier},
	)
	qtiPresentation(item, q.Text)
}

// QTI emission helpers shared by the question variants.

func qtiItem(section *etree.Element, ident string) *etree.Element {
	item := section.CreateElement("item")
	item.CreateAttr("ident", ident)
	item.CreateAttr("title", "Question")
	return item
}

func qtiItemMetadata(item *etree.Element, fields ...[2]string) {
	meta := item.CreateElement("itemmetadata").CreateElement("qtimetadata")
	for _, f := range fields {
		qtiMetaField(meta, f[0], f[1])
	}
}

func qtiMetaField(meta *etree.Element, label, entry string) {
	field := meta.CreateElement("qtimetadatafield")
	setText(field, "fieldlabel", label)
	setText(field, "fieldentry", entry)
}

func qtiPresentation(item *etree.Element, text string) *etree.Element {
	presentation := item.CreateElement("presentation")
	qtiMaterial(presentation, text, "text/html")
	return presentation
}

func qtiMaterial(parent *etree.Element, text, texttype string) {
	mattext := parent.CreateElement("material").CreateElement("mattext")
	mattext.CreateAttr("texttype", texttype)
	mattext.SetText(text)
}

func qtiResponseLid(presentation *etree.Element, ident, cardinality string) *etree.Element {
	lid := presentation.CreateElement("response_lid")
	lid.CreateAttr("ident", ident)
	lid.CreateAttr("rcardinality", cardinality)
	return lid.CreateElement("render_choice")
}

func qtiResponseLabel(choice *etree.Element, ident, text, texttype string) {
	label := choice.CreateElement("response_label")
	label.CreateAttr("ident", ident)
	qtiMaterial(label, text, texttype)
}

func qtiRenderFib(presentation *etree.Element, fibtype string) {
	response := presentation.CreateElement("response_str")
	response.CreateAttr("ident", "response1")
	response.CreateAttr("rcardinality", "Single")
	response.CreateElement("render_fib").CreateAttr("fibtype", fibtype)
}

func qtiOutcomes(item *etree.Element) *etree.Element {
	resprocessing := item.CreateElement("resprocessing")
	decvar := resprocessing.CreateElement("outcomes").CreateElement("decvar")
	decvar.CreateAttr("maxvalue", "100")
	decvar.CreateAttr("minvalue", "0")
	decvar.CreateAttr("varname", "SCORE")
	decvar.CreateAttr("vartype", "Decimal")
	return resprocessing
}

func qtiRespCondition(resprocessing *etree.Element, cont string) *etree.Element {
	cond := resprocessing.CreateElement("respcondition")
	cond.CreateAttr("continue", cont)
	return cond
}

func qtiVarEqual(conditionvar *etree.Element, respident, value string) {
	varequal := conditionvar.CreateElement("varequal")
	varequal.CreateAttr("respident", respident)
	varequal.SetText(value)
}

func qtiSetScore(respcondition *etree.Element, value string) {
	setvar := respcondition.CreateElement("setvar")
	setvar.CreateAttr("action", "Set")
	setvar.CreateAttr("varname", "SCORE")
	setvar.SetText(value)
}

func qtiVarRange(conditionvar *etree.Element, low, high float64) {
	and := conditionvar.CreateElement("and")
	vargte := and.CreateElement("vargte")
	vargte.CreateAttr("respident", "response1")
	vargte.SetText(formatFloat(low))
	varlte := and.CreateElement("varlte")
	varlte.CreateAttr("respident", "response1")
	varlte.SetText(formatFloat(high))
}
