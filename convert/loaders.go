package convert

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"ccb/course"
)

// courseInfo is the course.json schema. Missing files fall back to values
// derived from the template directory name.
type courseInfo struct {
	Title       string `json:"title"`
	CourseCode  string `json:"course_code"`
	DefaultView string `json:"default_view,omitempty"`
	License     string `json:"license,omitempty"`
}

var nonCodeRe = regexp.MustCompile(`[^A-Z0-9]+`)

// loadCourseInfo reads course.json from the template directory. When the
// file is absent, the title is derived from the directory name and the
// course code is the directory name uppercased, stripped and truncated.
func loadCourseInfo(templateDir string) (courseInfo, error) {
	info := courseInfo{}

	data, err := os.ReadFile(filepath.Join(templateDir, "course.json"))
	if err == nil {
		if err := json.Unmarshal(data, &info); err != nil {
			return info, fmt.Errorf("unable to parse course.json: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return info, err
	}

	name := filepath.Base(templateDir)
	if info.Title == "" {
		info.Title = titleizeStem(name)
	}
	if info.CourseCode == "" {
		code := nonCodeRe.ReplaceAllString(strings.ToUpper(name), "")
		if len(code) > 20 {
			code = code[:20]
		}
		info.CourseCode = code
	}
	return info, nil
}

// moduleSpec is one entry of modules.json. The legacy format listed page
// file names directly under "pages"; it is still accepted and treated as a
// list of page items.
type moduleSpec struct {
	Title string           `json:"title"`
	Items []moduleItemSpec `json:"items"`
	Pages []string         `json:"pages"`
}

type moduleItemSpec struct {
	Type       string `json:"type"`
	ID         string `json:"id"`
	Identifier string `json:"identifier"`
}

// Ref returns the item reference, accepting both "id" and "identifier"
// spellings.
func (i moduleItemSpec) Ref() string {
	if i.ID != "" {
		return i.ID
	}
	return i.Identifier
}

// loadModules reads modules.json; a missing file means no modules.
func loadModules(templateDir string) ([]moduleSpec, error) {
	data, err := os.ReadFile(filepath.Join(templateDir, "modules.json"))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var wrapper struct {
		Modules []moduleSpec `json:"modules"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("unable to parse modules.json: %w", err)
	}

	for i := range wrapper.Modules {
		m := &wrapper.Modules[i]
		if m.Title == "" {
			m.Title = "Untitled Module"
		}
		if len(m.Items) == 0 {
			for _, page := range m.Pages {
				m.Items = append(m.Items, moduleItemSpec{Type: "page", ID: page})
			}
		}
	}
	return wrapper.Modules, nil
}

// decodeOrderedObject walks a JSON object calling visit per key in source
// order. Plain unmarshalling into a map would lose the ordering, which for
// blanks, dropdowns and formula variables is the question author's ordering
// and must survive into the generated assessment.
func decodeOrderedObject(data []byte, visit func(key string, raw json.RawMessage) error) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected JSON object, got %v", tok)
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", keyTok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		if err := visit(key, raw); err != nil {
			return err
		}
	}
	_, err = dec.Token()
	return err
}

type answerJSON struct {
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

func toAnswers(in []answerJSON) []course.Answer {
	out := make([]course.Answer, 0, len(in))
	for _, a := range in {
		out = append(out, course.Answer{Text: a.Text, Correct: a.Correct})
	}
	return out
}

type blanksJSON []course.Blank

func (b *blanksJSON) UnmarshalJSON(data []byte) error {
	return decodeOrderedObject(data, func(key string, raw json.RawMessage) error {
		var answers []string
		if err := json.Unmarshal(raw, &answers); err != nil {
			return fmt.Errorf("blank %q: %w", key, err)
		}
		*b = append(*b, course.Blank{Name: key, Answers: answers})
		return nil
	})
}

type dropdownsJSON []course.Dropdown

func (d *dropdownsJSON) UnmarshalJSON(data []byte) error {
	return decodeOrderedObject(data, func(key string, raw json.RawMessage) error {
		var options []answerJSON
		if err := json.Unmarshal(raw, &options); err != nil {
			return fmt.Errorf("dropdown %q: %w", key, err)
		}
		*d = append(*d, course.Dropdown{Name: key, Options: toAnswers(options)})
		return nil
	})
}

type variablesJSON []course.FormulaVariable

func (v *variablesJSON) UnmarshalJSON(data []byte) error {
	return decodeOrderedObject(data, func(key string, raw json.RawMessage) error {
		var bounds struct {
			Min float64 `json:"min"`
			Max float64 `json:"max"`
		}
		if err := json.Unmarshal(raw, &bounds); err != nil {
			return fmt.Errorf("variable %q: %w", key, err)
		}
		*v = append(*v, course.FormulaVariable{Name: key, Min: bounds.Min, Max: bounds.Max})
		return nil
	})
}

type matchJSON struct {
	Prompt string `json:"prompt"`
	Answer string `json:"answer"`
}

// questionJSON is the common question schema; the "answers" payload shape
// depends on the question type (objects for choice questions, bare strings
// for fill in the blank) so it stays raw until the type is known.
type questionJSON struct {
	Type          string          `json:"type"`
	Text          string          `json:"text"`
	Points        *float64        `json:"points"`
	Answers       json.RawMessage `json:"answers"`
	CorrectAnswer *bool           `json:"correct_answer"`
	Blanks        blanksJSON      `json:"blanks"`
	Dropdowns     dropdownsJSON   `json:"dropdowns"`
	Matches       []matchJSON     `json:"matches"`
	Distractors   []string        `json:"distractors"`
	ExactAnswer   *float64        `json:"exact_answer"`
	AnswerRange   []float64       `json:"answer_range"`
	Margin        float64         `json:"margin"`
	Formula       string          `json:"formula"`
	Variables     variablesJSON   `json:"variables"`
	Tolerance     *float64        `json:"tolerance"`
}

func (q questionJSON) points() float64 {
	if q.Points != nil {
		return *q.Points
	}
	return 1.0
}

func (q questionJSON) answerObjects() ([]course.Answer, error) {
	if len(q.Answers) == 0 {
		return nil, nil
	}
	var answers []answerJSON
	if err := json.Unmarshal(q.Answers, &answers); err != nil {
		return nil, err
	}
	return toAnswers(answers), nil
}

func (q questionJSON) answerStrings() ([]string, error) {
	if len(q.Answers) == 0 {
		return nil, nil
	}
	var answers []string
	if err := json.Unmarshal(q.Answers, &answers); err != nil {
		return nil, err
	}
	return answers, nil
}

// buildQuestion creates the model question for one JSON entry.
func buildQuestion(q questionJSON, ids *course.IDSource) (course.Question, error) {
	switch q.Type {
	case "multiple_choice":
		answers, err := q.answerObjects()
		if err != nil {
			return nil, err
		}
		return course.NewMultipleChoiceQuestion(ids, q.Text, answers, q.points()), nil

	case "true_false":
		correct := true
		if q.CorrectAnswer != nil {
			correct = *q.CorrectAnswer
		}
		return course.NewTrueFalseQuestion(ids, q.Text, correct, q.points()), nil

	case "fill_in_blank":
		answers, err := q.answerStrings()
		if err != nil {
			return nil, err
		}
		return course.NewFillInBlankQuestion(ids, q.Text, answers, q.points()), nil

	case "fill_in_multiple_blanks":
		return course.NewFillInMultipleBlanksQuestion(ids, q.Text, q.Blanks, q.points()), nil

	case "multiple_answers":
		answers, err := q.answerObjects()
		if err != nil {
			return nil, err
		}
		return course.NewMultipleAnswersQuestion(ids, q.Text, answers, q.points()), nil

	case "multiple_dropdowns":
		return course.NewMultipleDropdownsQuestion(ids, q.Text, q.Dropdowns, q.points()), nil

	case "matching":
		matches := make([]course.MatchPair, 0, len(q.Matches))
		for _, m := range q.Matches {
			matches = append(matches, course.MatchPair{Prompt: m.Prompt, Answer: m.Answer})
		}
		return course.NewMatchingQuestion(ids, q.Text, matches, q.Distractors, q.points()), nil

	case "numerical_answer":
		question := course.NewNumericalAnswerQuestion(ids, q.Text, q.points())
		question.Exact = q.ExactAnswer
		question.Margin = q.Margin
		if len(q.AnswerRange) == 2 {
			question.Range = &course.NumericRange{Min: q.AnswerRange[0], Max: q.AnswerRange[1]}
		}
		return question, nil

	case "formula_question":
		question := course.NewFormulaQuestion(ids, q.Text, q.Formula, q.Variables, q.points())
		if q.Tolerance != nil {
			question.Tolerance = *q.Tolerance
		}
		return question, nil

	case "essay_question":
		return course.NewEssayQuestion(ids, q.Text, q.points()), nil

	case "file_upload_question":
		return course.NewFileUploadQuestion(ids, q.Text, q.points()), nil

	case "text_only_question":
		return course.NewTextOnlyQuestion(ids, q.Text), nil
	}
	return nil, fmt.Errorf("unknown question type %q", q.Type)
}

// quizFile is the quiz JSON schema.
type quizFile struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Settings    quizSettings   `json:"settings"`
	Questions   []questionJSON `json:"questions"`
}

type quizSettings struct {
	QuizType           string `json:"quiz_type"`
	AllowedAttempts    *int   `json:"allowed_attempts"`
	ScoringPolicy      string `json:"scoring_policy"`
	ShuffleQuestions   bool   `json:"shuffle_questions"`
	ShuffleAnswers     bool   `json:"shuffle_answers"`
	ShowCorrectAnswers *bool  `json:"show_correct_answers"`
	OneQuestionAtATime bool   `json:"one_question_at_a_time"`
	CantGoBack         bool   `json:"cant_go_back"`
	TimeLimit          *int   `json:"time_limit"`
}

// loadQuiz reads one quiz JSON file into the model.
func loadQuiz(path string, ids *course.IDSource, log *zap.Logger) (*course.Quiz, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file quizFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", filepath.Base(path), err)
	}
	if file.Title == "" {
		file.Title = "Untitled Quiz"
	}

	quiz := course.NewQuiz(ids, file.Title)
	quiz.Description = file.Description

	s := file.Settings
	if s.QuizType != "" {
		quiz.QuizType = s.QuizType
	}
	if s.ScoringPolicy != "" {
		quiz.ScoringPolicy = s.ScoringPolicy
	}
	if s.AllowedAttempts != nil {
		quiz.AllowedAttempts = *s.AllowedAttempts
	}
	quiz.ShuffleQuestions = s.ShuffleQuestions
	quiz.ShuffleAnswers = s.ShuffleAnswers
	quiz.ShowCorrectAnswers = true
	if s.ShowCorrectAnswers != nil {
		quiz.ShowCorrectAnswers = *s.ShowCorrectAnswers
	}
	quiz.OneQuestionAtATime = s.OneQuestionAtATime
	quiz.CantGoBack = s.CantGoBack
	quiz.TimeLimit = s.TimeLimit

	for i, q := range file.Questions {
		question, err := buildQuestion(q, ids)
		if err != nil {
			log.Warn("Skipping question", zap.String("quiz", filepath.Base(path)), zap.Int("index", i), zap.Error(err))
			continue
		}
		quiz.AddQuestion(question)
	}
	return quiz, nil
}

// assignmentFile is the assignment JSON schema. The submission types and
// allowed extensions accept either a JSON list or a pre-joined string.
type assignmentFile struct {
	Title             string          `json:"title"`
	Description       string          `json:"description"`
	DescriptionFile   string          `json:"description_file"`
	PointsPossible    *float64        `json:"points_possible"`
	SubmissionTypes   json.RawMessage `json:"submission_types"`
	AllowedExtensions json.RawMessage `json:"allowed_extensions"`
	GradingType       string          `json:"grading_type"`
	DueAt             string          `json:"due_at"`
	UnlockAt          string          `json:"unlock_at"`
	LockAt            string          `json:"lock_at"`
	Rubric            string          `json:"rubric"`
	AssignmentGroup   string          `json:"assignment_group"`
}

// loadedAssignment pairs the model object with the template-level
// references resolved by the caller.
type loadedAssignment struct {
	Assignment *course.Assignment
	RubricRef  string
	GroupName  string
}

func listOrString(raw json.RawMessage) (string, bool, error) {
	if len(raw) == 0 {
		return "", false, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, ","), true, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false, err
	}
	return s, true, nil
}

// loadAssignment reads one assignment JSON file. A description_file
// reference is read from the assignment directory and gets its stylesheets
// inlined relative to the template root, same as wiki pages.
func loadAssignment(path, templateRoot string, ids *course.IDSource, extraStyle []byte, log *zap.Logger) (*loadedAssignment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file assignmentFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", filepath.Base(path), err)
	}
	if file.Title == "" {
		file.Title = "Untitled Assignment"
	}

	description := file.Description
	if file.DescriptionFile != "" {
		htmlPath := filepath.Join(filepath.Dir(path), file.DescriptionFile)
		html, err := os.ReadFile(htmlPath)
		if err != nil {
			log.Warn("Description file not found",
				zap.String("assignment", filepath.Base(path)), zap.String("file", file.DescriptionFile), zap.Error(err))
		} else {
			description = inlineStyles(string(html), templateRoot, extraStyle, log)
		}
	}

	a := course.NewAssignment(ids, file.Title, description)
	if file.PointsPossible != nil {
		a.PointsPossible = *file.PointsPossible
	}
	if types, ok, err := listOrString(file.SubmissionTypes); err != nil {
		return nil, fmt.Errorf("%s: submission_types: %w", filepath.Base(path), err)
	} else if ok {
		a.SubmissionTypes = types
	}
	if exts, ok, err := listOrString(file.AllowedExtensions); err != nil {
		return nil, fmt.Errorf("%s: allowed_extensions: %w", filepath.Base(path), err)
	} else if ok {
		a.AllowedExtensions = exts
	}
	if file.GradingType != "" {
		a.GradingType = file.GradingType
	}
	a.DueAt, a.UnlockAt, a.LockAt = file.DueAt, file.UnlockAt, file.LockAt

	return &loadedAssignment{
		Assignment: a,
		RubricRef:  file.Rubric,
		GroupName:  file.AssignmentGroup,
	}, nil
}

// rubricFile is the rubric JSON schema.
type rubricFile struct {
	Title    string `json:"title"`
	Criteria []struct {
		Description     string  `json:"description"`
		LongDescription string  `json:"long_description"`
		Points          float64 `json:"points"`
		Ratings         []struct {
			Description string  `json:"description"`
			Points      float64 `json:"points"`
		} `json:"ratings"`
	} `json:"criteria"`
}

// loadRubric reads one rubric JSON file. A missing title falls back to one
// derived from the file name.
func loadRubric(path string, ids *course.IDSource) (*course.Rubric, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file rubricFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", filepath.Base(path), err)
	}
	if file.Title == "" {
		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		file.Title = titleizeStem(stem)
	}

	rubric := course.NewRubric(ids, file.Title)
	for _, c := range file.Criteria {
		description := c.Description
		if description == "" {
			description = "Criterion"
		}
		ratings := make([]course.RubricRating, 0, len(c.Ratings))
		for _, r := range c.Ratings {
			ratings = append(ratings, course.RubricRating{Description: r.Description, Points: r.Points})
		}
		rubric.AddCriterion(description, c.LongDescription, c.Points, ratings)
	}
	return rubric, nil
}
