package course

import (
	"github.com/beevik/etree"
)

// Rubric is a scoring guide made of weighted criteria.
type Rubric struct {
	Identifier string
	Title      string
	Criteria   []*RubricCriterion

	ids *IDSource
}

// RubricCriterion is one row of a rubric with its rating scale.
type RubricCriterion struct {
	Identifier      string
	Description     string
	LongDescription string
	Points          float64
	Ratings         []RubricRating
}

// RubricRating is one selectable level within a criterion.
type RubricRating struct {
	Identifier  string
	Description string
	Points      float64
}

// NewRubric creates an empty rubric.
func NewRubric(ids *IDSource, title string) *Rubric {
	return &Rubric{
		Identifier: ids.Identifier(),
		Title:      title,
		ids:        ids,
	}
}

// AddCriterion appends a criterion, minting identifiers for it and any
// rating that lacks one. A criterion without ratings gets the standard
// full / no marks pair.
func (r *Rubric) AddCriterion(description, longDescription string, points float64, ratings []RubricRating) *RubricCriterion {
	if len(ratings) == 0 {
		ratings = []RubricRating{
			{Description: "Full Marks", Points: points},
			{Description: "No Marks", Points: 0},
		}
	}
	for i := range ratings {
		if ratings[i].Identifier == "" {
			ratings[i].Identifier = r.ids.Identifier()
		}
	}
	c := &RubricCriterion{
		Identifier:      r.ids.Identifier(),
		Description:     description,
		LongDescription: longDescription,
		Points:          points,
		Ratings:         ratings,
	}
	r.Criteria = append(r.Criteria, c)
	return c
}

// PointsPossible is the sum over all criteria.
func (r *Rubric) PointsPossible() float64 {
	var total float64
	for _, c := range r.Criteria {
		total += c.Points
	}
	return total
}

// AppendXML emits the rubric entry into a rubrics document.
func (r *Rubric) AppendXML(parent *etree.Element) {
	el := parent.CreateElement("rubric")
	el.CreateAttr("identifier", r.Identifier)
	setBool(el, "read_only", false)
	setText(el, "title", r.Title)
	setBool(el, "reusable", false)
	setBool(el, "public", false)
	setBool(el, "hide_score_total", false)
	setBool(el, "free_form_criterion_comments", false)
	setFloat(el, "points_possible", r.PointsPossible())

	criteria := el.CreateElement("criteria")
	for _, c := range r.Criteria {
		crit := criteria.CreateElement("criterion")
		setText(crit, "criterion_id", c.Identifier)
		setInt(crit, "position", len(criteria.ChildElements()))
		setText(crit, "description", c.Description)
		setText(crit, "long_description", c.LongDescription)
		setFloat(crit, "points", c.Points)

		ratings := crit.CreateElement("ratings")
		for i, rating := range c.Ratings {
			rt := ratings.CreateElement("rating")
			setText(rt, "description", rating.Description)
			setInt(rt, "position", i+1)
			setFloat(rt, "points", rating.Points)
			setText(rt, "id", rating.Identifier)
		}
	}
}
