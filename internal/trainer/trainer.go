// Package trainer orchestrates one conversation: it runs each utterance
// through cleaning, classification, validation, spelling correction and the
// rule engine, updates memory and curiosity, and drives the two-turn
// clarification dialogue.
package trainer

import (
	"fmt"
	"slices"

	"github.com/ppiankov/endi/internal/curiosity"
	"github.com/ppiankov/endi/internal/extract"
	"github.com/ppiankov/endi/internal/journal"
	"github.com/ppiankov/endi/internal/logging"
	"github.com/ppiankov/endi/internal/model"
	"github.com/ppiankov/endi/internal/respond"
	"github.com/ppiankov/endi/internal/spell"
	"github.com/ppiankov/endi/internal/store"
	"go.uber.org/zap"
)

// Mode is the clarification state of a conversation
type Mode int

const (
	ModeIdle                  Mode = iota // Utterances go through the full pipeline
	ModeAwaitingClarification             // The next utterance answers Question
)

func (m Mode) String() string {
	if m == ModeAwaitingClarification {
		return "awaiting_clarification"
	}
	return "idle"
}

// State is the current clarification state
type State struct {
	Mode     Mode
	Question string // Set only while awaiting a clarification
}

// Reply is the outcome of one utterance.
// Text is empty when the input was ignored or rejected.
type Reply struct {
	Text          string
	Clarification string           // Question the agent asks about an unrecognized phrase
	Phrase        model.PhraseType // Classification of the utterance
}

// Components are the collaborators a Trainer drives.
// Nil members get in-memory or no-op defaults.
type Components struct {
	Store      *store.FactStore
	Tokenizer  *extract.Tokenizer
	Classifier *extract.Classifier
	Rules      *extract.RuleEngine
	Validator  *extract.StatementValidator
	Spell      spell.Corrector
	Curiosity  *curiosity.Tracker
	Journal    *journal.Journal
	Report     *journal.SelfReport
	Generator  *respond.Generator
	Logger     *zap.Logger
}

// Options tune the dialogue
type Options struct {
	AutoQuestioning        bool   // Arm clarifications and ask about unknown phrases
	MaxQuestionsPerSession int    // Clarifications armed per session; 0 means unlimited
	CuriosityEnabled       bool   // Track unknown phrases and questions
	CuriosityPath          string // Where curiosity is saved after each turn; "" disables saving
}

// Trainer is single-session and not safe for concurrent use
type Trainer struct {
	store      *store.FactStore
	tokenizer  *extract.Tokenizer
	classifier *extract.Classifier
	rules      *extract.RuleEngine
	validator  *extract.StatementValidator
	spell      spell.Corrector
	curiosity  *curiosity.Tracker
	journal    *journal.Journal
	report     *journal.SelfReport
	generator  *respond.Generator
	planner    *journal.Planner
	logger     *zap.Logger

	opts     Options
	state    State
	asked    int
	lastIn   string
	lastResp string
}

// New wires a Trainer and all of its collaborators from configuration
func New(cfg *model.Config, logger *zap.Logger) (*Trainer, error) {
	log := logging.Component(logger, "trainer")

	tokenizer := extract.NewTokenizer(cfg.Processor.MaxTokensPerInput, logger)
	classifier := extract.NewClassifier(cfg.NLP.QuestionStarters, cfg.NLP.CommandVerbs, logger)
	rules := extract.NewRuleEngine(logger)
	log.Debug("rule engine ready", zap.Strings("rules", rules.Rules()))

	st, err := store.Open(cfg, store.Options{
		Tokenizer:  tokenizer,
		Classifier: classifier,
		Rules:      rules,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	var corrector spell.Corrector = spell.Nop{}
	if cfg.Spell.Enabled && cfg.Spell.Dictionary != "" {
		dict, err := spell.LoadDictionary(cfg.Spell.Dictionary, cfg.Spell.MaxDistance, logger)
		if err != nil {
			log.Warn("spell dictionary unavailable, correction disabled", zap.Error(err))
		} else {
			corrector = dict
		}
	}

	cur := curiosity.New(logger)
	if err := cur.Load(cfg.Paths.CuriosityFile); err != nil {
		log.Warn("failed to load curiosity", zap.Error(err))
	}

	t := NewFromComponents(Components{
		Store:      st,
		Tokenizer:  tokenizer,
		Classifier: classifier,
		Rules:      rules,
		Validator:  extract.NewStatementValidator(cfg.NLP.LinkingWords),
		Spell:      corrector,
		Curiosity:  cur,
		Journal:    journal.NewJournal(cfg.Paths.JournalFile, logger),
		Report:     journal.NewSelfReport(cfg.Paths.SelfReport, logger),
		Generator:  respond.NewGenerator(st, logger),
		Logger:     logger,
	}, Options{
		AutoQuestioning:        cfg.Learning.EnableAutoQuestioning,
		MaxQuestionsPerSession: cfg.Learning.MaxQuestionsPerSession,
		CuriosityEnabled:       cfg.Modules.EnableCuriosity,
		CuriosityPath:          cfg.Paths.CuriosityFile,
	})

	return t, nil
}

// NewFromComponents builds a Trainer around existing collaborators
func NewFromComponents(c Components, opts Options) *Trainer {
	if c.Tokenizer == nil {
		c.Tokenizer = extract.NewTokenizer(extract.DefaultMaxTokens, c.Logger)
	}
	if c.Classifier == nil {
		c.Classifier = extract.NewClassifier(model.DefaultQuestionStarters, model.DefaultCommandVerbs, c.Logger)
	}
	if c.Rules == nil {
		c.Rules = extract.NewRuleEngine(c.Logger)
	}
	if c.Store == nil {
		c.Store = store.New(store.Options{
			Tokenizer:  c.Tokenizer,
			Classifier: c.Classifier,
			Rules:      c.Rules,
			Logger:     c.Logger,
		})
	}
	if c.Validator == nil {
		c.Validator = extract.NewStatementValidator(model.DefaultLinkingWords)
	}
	if c.Spell == nil {
		c.Spell = spell.Nop{}
	}
	if c.Curiosity == nil {
		c.Curiosity = curiosity.New(c.Logger)
	}
	if c.Generator == nil {
		c.Generator = respond.NewGenerator(c.Store, c.Logger)
	}

	return &Trainer{
		store:      c.Store,
		tokenizer:  c.Tokenizer,
		classifier: c.Classifier,
		rules:      c.Rules,
		validator:  c.Validator,
		spell:      c.Spell,
		curiosity:  c.Curiosity,
		journal:    c.Journal,
		report:     c.Report,
		generator:  c.Generator,
		planner:    journal.NewPlanner(c.Curiosity, c.Journal, c.Logger),
		logger:     logging.Component(c.Logger, "trainer"),
		opts:       opts,
	}
}

// Process handles one utterance and returns the agent's reply.
// It never fails: every problem is logged and degraded to a quieter reply.
func (t *Trainer) Process(text string) Reply {
	if t.state.Mode == ModeAwaitingClarification {
		return t.processClarification(text)
	}

	if extract.IsIgnorable(text) {
		t.logger.Debug("ignored", zap.String("text", text))
		return Reply{}
	}

	cleaned := extract.Clean(text)
	phrase := t.classifier.Classify(cleaned)
	tokens := t.tokenizer.Tokenize(cleaned)

	if phrase == model.PhraseStatement && !t.validator.Valid(tokens) {
		t.logger.Warn("statement rejected", zap.String("text", cleaned))
		t.logAction("Фраза отвергнута: недостаточно структуры.", "")
		return Reply{Phrase: phrase}
	}

	if corrected := t.spell.Correct(tokens); !slices.Equal(corrected, tokens) {
		t.logger.Info("tokens corrected", zap.Strings("from", tokens), zap.Strings("to", corrected))
		tokens = corrected
	}

	reply := Reply{Phrase: phrase}
	if intent, ok := t.rules.Apply(phrase, tokens, cleaned); ok {
		t.handleIntent(intent)
	} else {
		reply.Clarification = t.handleUnknown(cleaned)
	}

	reply.Text = t.generator.Generate(phrase, tokens)
	t.logger.Info("response", zap.String("text", reply.Text))
	t.logAction("Ответ: "+reply.Text, "Generator")
	if t.journal != nil {
		t.journal.RecordResponse(reply.Text)
	}
	t.saveCuriosity()

	t.lastIn = cleaned
	t.lastResp = reply.Text
	return reply
}

// processClarification treats text as the answer to the pending question.
// The text is not classified for the dialogue; it only feeds fact extraction.
func (t *Trainer) processClarification(text string) Reply {
	question := t.state.Question
	t.logger.Info("clarification received", zap.String("question", question))

	if t.store.ExtractFactFromText(text) {
		t.logger.Debug("clarification produced a fact")
	}
	if t.journal != nil {
		t.journal.RecordClarificationResponse(text, question)
	}
	t.logAction("Получено уточнение: "+text, "")

	t.state = State{Mode: ModeIdle}
	return Reply{Text: t.generator.Acknowledgement()}
}

func (t *Trainer) handleIntent(intent model.Intent) {
	switch intent.Kind {
	case model.IntentFact:
		if err := t.store.AddFact(intent.Subject, intent.Predicate, intent.Object, intent.Source); err != nil {
			t.logger.Debug("fact not added", zap.Error(err))
			return
		}
		msg := fmt.Sprintf("%s — %s — %s", intent.Subject, intent.Predicate, intent.Object)
		t.logAction("Запомнил факт: "+msg, "")
		if t.journal != nil {
			t.journal.RecordFactAdded(intent.Subject, intent.Predicate, intent.Object)
		}

	case model.IntentQuestion:
		if t.opts.AutoQuestioning && t.canAsk() {
			t.state = State{Mode: ModeAwaitingClarification, Question: intent.Text}
			t.asked++
		}
		if t.opts.CuriosityEnabled {
			t.curiosity.Add(intent.Text)
		}
		t.logger.Info("question detected", zap.String("text", intent.Text))
		if t.journal != nil {
			t.journal.RecordQuestion(intent.Text)
			t.journal.RecordGoal(curiosity.Question(intent.Text))
		}

	case model.IntentConcept:
		t.store.AddKnowledge(intent.Title, intent.Content, intent.KnowledgeType, intent.Tags)
		t.logger.Info("knowledge added", zap.String("title", intent.Title))
		if t.journal != nil {
			t.journal.RecordKnowledge(intent.Title)
		}
	}
}

// handleUnknown tracks an unrecognized phrase and returns the clarification
// prompt, if one is asked. The dialogue is not armed here: the answer to an
// unknown phrase goes through the normal pipeline.
func (t *Trainer) handleUnknown(text string) string {
	if t.opts.CuriosityEnabled {
		t.curiosity.Add(text)
	}
	t.logger.Warn("unknown phrase", zap.String("text", text))
	t.logAction("Неопознанная фраза добавлена в любознательность", "")
	if t.journal != nil {
		t.journal.RecordUnknownPhrase(text)
	}

	if !t.opts.AutoQuestioning {
		return ""
	}

	question := t.generator.AskClarification(text)
	if t.journal != nil {
		t.journal.RecordClarificationPrompt(question)
		t.journal.RecordGoal(question)
	}
	return question
}

func (t *Trainer) canAsk() bool {
	return t.opts.MaxQuestionsPerSession <= 0 || t.asked < t.opts.MaxQuestionsPerSession
}

func (t *Trainer) logAction(action, source string) {
	if t.report != nil {
		t.report.Log(action, source)
	}
}

func (t *Trainer) saveCuriosity() {
	if t.opts.CuriosityPath == "" {
		return
	}
	if err := t.curiosity.Save(t.opts.CuriosityPath); err != nil {
		t.logger.Error("failed to save curiosity", zap.Error(err))
	}
}

// State returns the current clarification state
func (t *Trainer) State() State {
	return t.state
}

// Last returns the last cleaned input and the reply given to it
func (t *Trainer) Last() (input, response string) {
	return t.lastIn, t.lastResp
}

// Tokenizer returns the tokenizer used for utterances
func (t *Trainer) Tokenizer() *extract.Tokenizer {
	return t.tokenizer
}

// Generator returns the reply generator
func (t *Trainer) Generator() *respond.Generator {
	return t.generator
}

// Store returns the fact store
func (t *Trainer) Store() *store.FactStore {
	return t.store
}

// Curiosity returns the curiosity tracker
func (t *Trainer) Curiosity() *curiosity.Tracker {
	return t.curiosity
}

// Journal returns the meta journal; it may be nil
func (t *Trainer) Journal() *journal.Journal {
	return t.journal
}

// Report returns the self-report; it may be nil
func (t *Trainer) Report() *journal.SelfReport {
	return t.report
}

// Plan returns the learning goals derived from open questions
func (t *Trainer) Plan() []string {
	return t.planner.Plan()
}

// ClearCuriosity forgets every tracked phrase and saves the empty list
func (t *Trainer) ClearCuriosity() {
	t.curiosity.Clear()
	t.saveCuriosity()
}

// Close releases the store
func (t *Trainer) Close() error {
	return t.store.Close()
}
