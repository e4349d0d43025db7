package postgres

import "go.uber.org/zap"

// Tx is the set of repositories bound to one open transaction. Every
// operation performed through it shares the transaction connection
// and commits or rolls back as one unit.
type Tx struct {
	Projects     *ProjectRepository
	TextSources  *TextSourceRepository
	Summaries    *SummaryRepository
	Translations *TranslationRepository
	Videos       *VideoRepository
	Links        *LinkRepository
}

func newTx(db DBTX, log *zap.SugaredLogger) *Tx {
	return &Tx{
		Projects:     NewProjectRepository(db, log),
		TextSources:  NewTextSourceRepository(db, log),
		Summaries:    NewSummaryRepository(db, log),
		Translations: NewTranslationRepository(db, log),
		Videos:       NewVideoRepository(db, log),
		Links:        NewLinkRepository(db, log),
	}
}
