package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/kirillkom/compliance-assistant/internal/core/domain"
	"github.com/kirillkom/compliance-assistant/internal/infrastructure/resilience"
)

// ComplianceRepository serves exact lookups over the seeded compliance guide.
// Question codes are matched case-insensitively against the canonical identifier.
type ComplianceRepository struct {
	db       *sql.DB
	executor *resilience.Executor
}

func NewComplianceRepository(db *sql.DB, executor *resilience.Executor) *ComplianceRepository {
	return &ComplianceRepository{db: db, executor: executor}
}

type questionRow struct {
	id       int64
	section  domain.Section
	question domain.Question
}

func (r *ComplianceRepository) CountIndicators(ctx context.Context, id domain.Identifier) (domain.CountResult, error) {
	return r.countItems(ctx, "count indicators", id, `
SELECT COUNT(*)
FROM compliance_indicators i
JOIN compliance_questions q ON q.id = i.question_id
WHERE UPPER(q.question_code) = $1
`)
}

func (r *ComplianceRepository) CountDeficiencies(ctx context.Context, id domain.Identifier) (domain.CountResult, error) {
	return r.countItems(ctx, "count deficiencies", id, `
SELECT COUNT(*)
FROM compliance_deficiencies d
JOIN compliance_questions q ON q.id = d.question_id
WHERE UPPER(q.question_code) = $1
`)
}

func (r *ComplianceRepository) countItems(ctx context.Context, op string, id domain.Identifier, query string) (domain.CountResult, error) {
	var out domain.CountResult
	err := r.run(ctx, "postgres."+strings.ReplaceAll(op, " ", "_"), func(ctx context.Context) error {
		q, err := r.question(ctx, id)
		if err != nil {
			return err
		}
		var count int
		if err := r.db.QueryRowContext(ctx, query, id.String()).Scan(&count); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		out = domain.CountResult{Code: domain.CanonicalIdentifier(q.question.Code), Question: q.question, Count: count}
		return nil
	})
	return out, err
}

func (r *ComplianceRepository) ListIndicators(ctx context.Context, id domain.Identifier) (domain.IndicatorList, error) {
	var out domain.IndicatorList
	err := r.run(ctx, "postgres.list_indicators", func(ctx context.Context) error {
		q, err := r.question(ctx, id)
		if err != nil {
			return err
		}
		indicators, err := r.indicators(ctx, q.id)
		if err != nil {
			return err
		}
		out = domain.IndicatorList{Code: domain.CanonicalIdentifier(q.question.Code), Question: q.question, Indicators: indicators}
		return nil
	})
	return out, err
}

func (r *ComplianceRepository) ListDeficiencies(ctx context.Context, id domain.Identifier) (domain.DeficiencyList, error) {
	var out domain.DeficiencyList
	err := r.run(ctx, "postgres.list_deficiencies", func(ctx context.Context) error {
		q, err := r.question(ctx, id)
		if err != nil {
			return err
		}
		deficiencies, err := r.deficiencies(ctx, q.id)
		if err != nil {
			return err
		}
		out = domain.DeficiencyList{Code: domain.CanonicalIdentifier(q.question.Code), Question: q.question, Deficiencies: deficiencies}
		return nil
	})
	return out, err
}

func (r *ComplianceRepository) GetSection(ctx context.Context, id domain.Identifier) (domain.SectionDetail, error) {
	var out domain.SectionDetail
	err := r.run(ctx, "postgres.get_section", func(ctx context.Context) error {
		q, err := r.question(ctx, id)
		if err != nil {
			return err
		}
		indicators, err := r.indicators(ctx, q.id)
		if err != nil {
			return err
		}
		deficiencies, err := r.deficiencies(ctx, q.id)
		if err != nil {
			return err
		}
		out = domain.SectionDetail{
			Code:         domain.CanonicalIdentifier(q.question.Code),
			Section:      q.section,
			Question:     q.question,
			Indicators:   indicators,
			Deficiencies: deficiencies,
			Stats: domain.SectionStats{
				IndicatorCount:  len(indicators),
				DeficiencyCount: len(deficiencies),
			},
		}
		return nil
	})
	return out, err
}

func (r *ComplianceRepository) GetTotals(ctx context.Context) (domain.Totals, error) {
	var out domain.Totals
	err := r.run(ctx, "postgres.get_totals", func(ctx context.Context) error {
		row := r.db.QueryRowContext(ctx, `
SELECT
	(SELECT COUNT(*) FROM compliance_sections),
	(SELECT COUNT(*) FROM compliance_questions),
	(SELECT COUNT(*) FROM compliance_indicators),
	(SELECT COUNT(*) FROM compliance_deficiencies)
`)
		if err := row.Scan(&out.Sections, &out.Questions, &out.Indicators, &out.Deficiencies); err != nil {
			return fmt.Errorf("scan totals: %w", err)
		}
		return nil
	})
	return out, err
}

func (r *ComplianceRepository) question(ctx context.Context, id domain.Identifier) (questionRow, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT q.id, q.question_code, q.question_text,
	COALESCE(q.basic_requirement, ''), COALESCE(q.applicability, ''),
	COALESCE(q.detailed_explanation, ''), COALESCE(q.instructions_for_reviewer, ''),
	s.section_code, s.section_name, COALESCE(s.page_range, ''), COALESCE(s.purpose, '')
FROM compliance_questions q
JOIN compliance_sections s ON s.id = q.section_id
WHERE UPPER(q.question_code) = $1
ORDER BY q.id
LIMIT 1
`, id.String())

	var out questionRow
	err := row.Scan(
		&out.id, &out.question.Code, &out.question.Text,
		&out.question.BasicRequirement, &out.question.Applicability,
		&out.question.DetailedExplanation, &out.question.InstructionsForReviewer,
		&out.section.Code, &out.section.Name, &out.section.PageRange, &out.section.Purpose,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return questionRow{}, domain.WrapError(domain.ErrSectionNotFound, "lookup question", fmt.Errorf("question code %s", id))
		}
		return questionRow{}, fmt.Errorf("scan question: %w", err)
	}
	return out, nil
}

func (r *ComplianceRepository) indicators(ctx context.Context, questionID int64) ([]domain.Indicator, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT letter, indicator_text
FROM compliance_indicators
WHERE question_id = $1
ORDER BY indicator_order, id
`, questionID)
	if err != nil {
		return nil, fmt.Errorf("list indicators: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Indicator, 0)
	for rows.Next() {
		var ind domain.Indicator
		if err := rows.Scan(&ind.Letter, &ind.Text); err != nil {
			return nil, fmt.Errorf("scan indicator: %w", err)
		}
		out = append(out, ind)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate indicators: %w", err)
	}
	return out, nil
}

func (r *ComplianceRepository) deficiencies(ctx context.Context, questionID int64) ([]domain.Deficiency, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT deficiency_code, deficiency_title, determination, COALESCE(corrective_action, '')
FROM compliance_deficiencies
WHERE question_id = $1
ORDER BY deficiency_order, id
`, questionID)
	if err != nil {
		return nil, fmt.Errorf("list deficiencies: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Deficiency, 0)
	for rows.Next() {
		var def domain.Deficiency
		if err := rows.Scan(&def.Code, &def.Title, &def.Determination, &def.CorrectiveAction); err != nil {
			return nil, fmt.Errorf("scan deficiency: %w", err)
		}
		out = append(out, def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deficiencies: %w", err)
	}
	return out, nil
}

// ReplaceGuide swaps the whole guide in one transaction. Repeated question codes
// inside a section keep their first occurrence.
func (r *ComplianceRepository) ReplaceGuide(ctx context.Context, sections []domain.GuideSection) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin guide tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM compliance_sections`); err != nil {
		return fmt.Errorf("clear guide: %w", err)
	}

	for _, gs := range sections {
		var sectionID int64
		err := tx.QueryRowContext(ctx, `
INSERT INTO compliance_sections (section_code, section_name, page_range, purpose)
VALUES ($1, $2, $3, $4)
RETURNING id
`, gs.Section.Code, gs.Section.Name, nullableString(gs.Section.PageRange), nullableString(gs.Section.Purpose)).Scan(&sectionID)
		if err != nil {
			return fmt.Errorf("insert section %s: %w", gs.Section.Code, err)
		}

		seen := make(map[string]struct{}, len(gs.Questions))
		order := 0
		for _, gq := range gs.Questions {
			code := gq.Question.Code
			if _, dup := seen[code]; dup {
				continue
			}
			seen[code] = struct{}{}
			order++
			if err := insertQuestion(ctx, tx, sectionID, order, gq); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit guide tx: %w", err)
	}
	return nil
}

func insertQuestion(ctx context.Context, tx *sql.Tx, sectionID int64, order int, gq domain.GuideQuestion) error {
	q := gq.Question
	var questionID int64
	err := tx.QueryRowContext(ctx, `
INSERT INTO compliance_questions (
	section_id, question_code, question_text, basic_requirement, applicability,
	detailed_explanation, instructions_for_reviewer, question_order
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
RETURNING id
`, sectionID, q.Code, q.Text, nullableString(q.BasicRequirement), nullableString(q.Applicability),
		nullableString(q.DetailedExplanation), nullableString(q.InstructionsForReviewer), order).Scan(&questionID)
	if err != nil {
		return fmt.Errorf("insert question %s: %w", q.Code, err)
	}

	for i, ind := range gq.Indicators {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO compliance_indicators (question_id, letter, indicator_text, indicator_order)
VALUES ($1,$2,$3,$4)
`, questionID, ind.Letter, ind.Text, i+1); err != nil {
			return fmt.Errorf("insert indicator %s.%s: %w", q.Code, ind.Letter, err)
		}
	}
	for i, def := range gq.Deficiencies {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO compliance_deficiencies (question_id, deficiency_code, deficiency_title, determination, corrective_action, deficiency_order)
VALUES ($1,$2,$3,$4,$5,$6)
`, questionID, def.Code, def.Title, def.Determination, nullableString(def.CorrectiveAction), i+1); err != nil {
			return fmt.Errorf("insert deficiency %s: %w", def.Code, err)
		}
	}
	return nil
}

// run routes reads through the breaker when one is configured. Misses are not failures.
func (r *ComplianceRepository) run(ctx context.Context, operation string, fn func(context.Context) error) error {
	if r.executor == nil {
		return fn(ctx)
	}
	err := r.executor.Execute(ctx, operation, fn, classifyPostgresError)
	return wrapTemporaryIfNeeded(operation, err)
}

func nullableString(v string) any {
	if v == "" {
		return nil
	}
	return v
}
