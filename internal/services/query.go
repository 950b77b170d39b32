package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/eigo-backend/internal/data/aggregates"
	"github.com/yungbote/eigo-backend/internal/data/repos"
	domainagg "github.com/yungbote/eigo-backend/internal/domain/aggregates"
	"github.com/yungbote/eigo-backend/internal/domain/content"
	"github.com/yungbote/eigo-backend/internal/pkg/dbctx"
	"github.com/yungbote/eigo-backend/internal/pkg/logger"
)

type QueryService interface {
	ListMaterials(ctx context.Context) ([]*content.Material, error)
	GetHierarchy(ctx context.Context, materialID uuid.UUID) (*HierarchyView, error)
	GetDetail(ctx context.Context, unitID uuid.UUID) (*DetailView, error)
}

type HierarchyView struct {
	Material *content.Material `json:"material"`
	Chapters []*ChapterNode    `json:"chapters"`
}

type ChapterNode struct {
	ID          uuid.UUID      `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Level       int            `json:"level"`
	Order       int            `json:"order"`
	Units       []UnitSummary  `json:"units"`
	Children    []*ChapterNode `json:"children"`
}

type UnitSummary struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Order         int       `json:"order"`
	QuestionCount int       `json:"question_count"`
}

type DetailView struct {
	Material  *content.Material  `json:"material"`
	Path      []*content.Chapter `json:"path"`
	Unit      *content.Unit      `json:"unit"`
	Questions []QuestionDetail   `json:"questions"`
}

type QuestionDetail struct {
	*content.Question
	CorrectAnswers []*content.CorrectAnswer `json:"correct_answers"`
}

type queryService struct {
	db    *gorm.DB
	log   *logger.Logger
	tx    aggregates.TxRunner
	repos repos.Set
}

func NewQueryService(db *gorm.DB, log *logger.Logger, tx aggregates.TxRunner, rs repos.Set) QueryService {
	return &queryService{
		db:    db,
		log:   log.With("service", "QueryService"),
		tx:    tx,
		repos: rs,
	}
}

func (s *queryService) ListMaterials(ctx context.Context) ([]*content.Material, error) {
	out, err := s.repos.Material.List(dbctx.New(ctx))
	if err != nil {
		return nil, aggregates.MapError("query.ListMaterials", err)
	}
	return out, nil
}

// GetHierarchy assembles the tree from three flat reads: chapters of the
// material, units of those chapters, question counts of those units.
func (s *queryService) GetHierarchy(ctx context.Context, materialID uuid.UUID) (*HierarchyView, error) {
	const op = "query.GetHierarchy"
	var view *HierarchyView
	err := s.tx.InSnapshot(ctx, func(dbc dbctx.Context) error {
		ms, err := s.repos.Material.GetByIDs(dbc, []uuid.UUID{materialID})
		if err != nil {
			return err
		}
		if len(ms) == 0 {
			return domainagg.NotFound(op, "material")
		}
		chapters, err := s.repos.Chapter.ListByMaterial(dbc, materialID)
		if err != nil {
			return err
		}
		chapterIDs := make([]uuid.UUID, 0, len(chapters))
		for _, c := range chapters {
			chapterIDs = append(chapterIDs, c.ID)
		}
		units, err := s.repos.Unit.ListByChapterIDs(dbc, chapterIDs)
		if err != nil {
			return err
		}
		unitIDs := make([]uuid.UUID, 0, len(units))
		unitsByChapter := make(map[uuid.UUID][]*content.Unit, len(chapters))
		for _, u := range units {
			unitIDs = append(unitIDs, u.ID)
			unitsByChapter[u.ChapterID] = append(unitsByChapter[u.ChapterID], u)
		}
		counts, err := s.repos.Question.CountByUnitIDs(dbc, unitIDs)
		if err != nil {
			return err
		}

		tree := content.NewChapterTree(chapters)
		var build func(cs []*content.Chapter) []*ChapterNode
		build = func(cs []*content.Chapter) []*ChapterNode {
			out := make([]*ChapterNode, 0, len(cs))
			for _, c := range cs {
				node := &ChapterNode{
					ID:          c.ID,
					Name:        c.Name,
					Description: c.Description,
					Level:       c.Level,
					Order:       c.Order,
					Units:       make([]UnitSummary, 0, len(unitsByChapter[c.ID])),
				}
				for _, u := range unitsByChapter[c.ID] {
					node.Units = append(node.Units, UnitSummary{
						ID:            u.ID,
						Name:          u.Name,
						Description:   u.Description,
						Order:         u.Order,
						QuestionCount: counts[u.ID],
					})
				}
				node.Children = build(tree.Children(c.ID))
				out = append(out, node)
			}
			return out
		}
		view = &HierarchyView{Material: ms[0], Chapters: build(tree.Roots())}
		return nil
	})
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	return view, nil
}

func (s *queryService) GetDetail(ctx context.Context, unitID uuid.UUID) (*DetailView, error) {
	const op = "query.GetDetail"
	var view *DetailView
	err := s.tx.InSnapshot(ctx, func(dbc dbctx.Context) error {
		us, err := s.repos.Unit.GetByIDs(dbc, []uuid.UUID{unitID})
		if err != nil {
			return err
		}
		if len(us) == 0 {
			return domainagg.NotFound(op, "unit")
		}
		unit := us[0]
		chs, err := s.repos.Chapter.GetByIDs(dbc, []uuid.UUID{unit.ChapterID})
		if err != nil {
			return err
		}
		if len(chs) == 0 {
			return domainagg.NotFound(op, "chapter")
		}
		ms, err := s.repos.Material.GetByIDs(dbc, []uuid.UUID{chs[0].MaterialID})
		if err != nil {
			return err
		}
		if len(ms) == 0 {
			return domainagg.NotFound(op, "material")
		}
		all, err := s.repos.Chapter.ListByMaterial(dbc, chs[0].MaterialID)
		if err != nil {
			return err
		}
		path := content.NewChapterTree(all).Path(unit.ChapterID)

		questions, err := s.repos.Question.ListByUnitIDs(dbc, []uuid.UUID{unitID})
		if err != nil {
			return err
		}
		qids := make([]uuid.UUID, 0, len(questions))
		for _, q := range questions {
			qids = append(qids, q.ID)
		}
		answers, err := s.repos.CorrectAnswer.ListByQuestionIDs(dbc, qids)
		if err != nil {
			return err
		}
		byQuestion := make(map[uuid.UUID][]*content.CorrectAnswer, len(questions))
		for _, a := range answers {
			byQuestion[a.QuestionID] = append(byQuestion[a.QuestionID], a)
		}
		details := make([]QuestionDetail, 0, len(questions))
		for _, q := range questions {
			as := byQuestion[q.ID]
			if as == nil {
				as = []*content.CorrectAnswer{}
			}
			details = append(details, QuestionDetail{Question: q, CorrectAnswers: as})
		}
		view = &DetailView{Material: ms[0], Path: path, Unit: unit, Questions: details}
		return nil
	})
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	return view, nil
}
