package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lexcodex/uigen/catalog"
	"github.com/lexcodex/uigen/llm"
	"github.com/lexcodex/uigen/repair"
	"github.com/lexcodex/uigen/retriever"
	"github.com/lexcodex/uigen/validator"
)

// CodeValidator is the validation capability the orchestrator needs.
type CodeValidator interface {
	Validate(ctx context.Context, source string) (*validator.Report, error)
}

// DocFinder resolves documentation lookups.
type DocFinder interface {
	Lookup(ctx context.Context, queries []string, profile retriever.Profile) ([]string, error)
}

// Services bundles every collaborator the orchestrator depends on. It is
// constructed once at startup and passed in explicitly; nothing here is
// reached for globally, which keeps every piece substitutable in tests.
type Services struct {
	Model     llm.Client
	Catalog   *catalog.Catalog
	Docs      DocFinder
	Validator CodeValidator
	Sessions  SessionStore
	Logger    *zap.Logger
}

// Config tunes a single orchestrator.
type Config struct {
	// MaxIterations bounds validation attempts per turn. A source that never
	// compiles fails the turn with a BudgetExhaustedError instead of looping
	// forever.
	MaxIterations int
	// UILibrary is the component package generated imports come from.
	UILibrary string
}

// Orchestrator runs one generation turn per call. Turns for the same session
// id must not run concurrently; the caller serializes them.
type Orchestrator struct {
	services Services
	cfg      Config
	genOpts  llm.Options
}

// New validates the wiring and builds an orchestrator. Missing collaborators
// are configuration errors surfaced immediately.
func New(services Services, cfg Config) (*Orchestrator, error) {
	switch {
	case services.Model == nil:
		return nil, fmt.Errorf("orchestrator: model client required")
	case services.Catalog == nil:
		return nil, fmt.Errorf("orchestrator: catalog required")
	case services.Docs == nil:
		return nil, fmt.Errorf("orchestrator: doc finder required")
	case services.Validator == nil:
		return nil, fmt.Errorf("orchestrator: validator required")
	case services.Sessions == nil:
		return nil, fmt.Errorf("orchestrator: session store required")
	}
	if services.Logger == nil {
		services.Logger = zap.NewNop()
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 50
	}
	if cfg.UILibrary == "" {
		cfg.UILibrary = "@nlmk/ds-2.0"
	}
	return &Orchestrator{
		services: services,
		cfg:      cfg,
		genOpts:  llm.Options{Temperature: 0},
	}, nil
}

// Run executes one turn: load (or create) the session, apply the new request,
// walk the state machine, and persist the resulting session whether the turn
// succeeded or failed. It returns the final artifact on success.
func (o *Orchestrator) Run(ctx context.Context, sessionID, query string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", fmt.Errorf("empty query")
	}
	sess, err := o.services.Sessions.Load(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("load session: %w", err)
	}
	seed := CodeSample(o.cfg.UILibrary)
	iterative := sess != nil
	if sess == nil {
		sess = &Session{ID: sessionID, Query: query, Code: seed}
	} else if sess.LastError != "" && sess.Code == seed {
		// The previous turn failed before producing any artifact; a retry
		// under the same id starts over rather than modifying the seed
		// skeleton.
		iterative = false
		sess.Query = query
		sess.NewQuery = ""
		sess.Components = nil
		sess.Instructions = ""
		sess.Diagnostics = nil
	} else {
		sess.NewQuery = query
	}
	logger := o.services.Logger.With(zap.String("session", sessionID), zap.Bool("iterative", iterative))

	code, runErr := o.runTurn(ctx, logger, sess, iterative)

	sess.LastError = ""
	if runErr != nil {
		sess.LastError = runErr.Error()
	}
	sess.UpdatedAt = time.Now().UTC()
	if saveErr := o.services.Sessions.Save(ctx, sess); saveErr != nil {
		logger.Error("session save failed", zap.Error(saveErr))
		if runErr == nil {
			runErr = fmt.Errorf("save session: %w", saveErr)
		}
	}
	return code, runErr
}

// runTurn walks the state machine until a terminal state. It mutates the
// session in place; the caller persists it.
func (o *Orchestrator) runTurn(ctx context.Context, logger *zap.Logger, sess *Session, iterative bool) (string, error) {
	state := StateSelect
	attempts := 0

	for !Terminal(state) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		logger.Debug("state", zap.String("state", string(state)), zap.Int("attempts", attempts))

		switch state {
		case StateSelect:
			if err := o.selectComponents(ctx, sess, iterative); err != nil {
				return "", err
			}
			state = Transition(state, OutcomeOK)

		case StateGenerate:
			if err := o.generate(ctx, sess, iterative); err != nil {
				return "", err
			}
			state = Transition(state, OutcomeOK)

		case StateValidate:
			report, err := o.services.Validator.Validate(ctx, sess.Code)
			if err != nil {
				// Toolchain or filesystem failure: never routed into the
				// repair loop as if it were a code defect.
				return "", fmt.Errorf("validate candidate: %w", err)
			}
			attempts++
			if report.Valid {
				sess.Diagnostics = nil
				if iterative {
					sess.Query = sess.Query + " " + sess.NewQuery
					sess.NewQuery = ""
				}
				state = Transition(state, OutcomeOK)
				break
			}
			sess.Diagnostics = report.Diagnostics
			logger.Info("validation failed",
				zap.Int("attempt", attempts),
				zap.Int("diagnostics", len(report.Diagnostics)),
			)
			if attempts >= o.cfg.MaxIterations {
				state = Transition(state, OutcomeBudget)
				return sess.Code, &BudgetExhaustedError{
					Attempts:    attempts,
					Artifact:    sess.Code,
					Diagnostics: report.Diagnostics,
				}
			}
			state = Transition(state, OutcomeInvalid)

		case StateRepair:
			if err := o.repairOnce(ctx, sess); err != nil {
				return "", err
			}
			state = Transition(state, OutcomeOK)
		}
	}

	logger.Info("turn complete", zap.Int("validations", attempts), zap.Int("code_bytes", len(sess.Code)))
	return sess.Code, nil
}

// selectComponents runs the selection stage in fresh or iterative mode and
// stores the catalog-filtered refs on the session.
func (o *Orchestrator) selectComponents(ctx context.Context, sess *Session, iterative bool) error {
	components := o.services.Catalog.Describe()
	if iterative {
		resp, err := o.services.Model.Chat(ctx, []llm.Message{
			llm.System(iterSelectionSystem),
			llm.User(iterSelectionPrompt(sess.Query, sess.NewQuery, sess.Code, components)),
		}, &o.genOpts)
		if err != nil {
			return fmt.Errorf("iterative selection: %w", err)
		}
		sel, err := DecodeIterSelection(resp.Text)
		if err != nil {
			return err
		}
		sess.Instructions = sel.Instructions
		sess.Components = o.services.Catalog.Filter(sel.ComponentsToModify)
		return nil
	}

	resp, err := o.services.Model.Chat(ctx, []llm.Message{
		llm.System(selectionSystem),
		llm.User(selectionPrompt(sess.Query, components)),
	}, &o.genOpts)
	if err != nil {
		return fmt.Errorf("selection: %w", err)
	}
	sel, err := DecodeSelection(resp.Text)
	if err != nil {
		return err
	}
	sess.Components = o.services.Catalog.Filter(sel.NeededComponents)
	return nil
}

// generate retrieves documentation for the selected components with the broad
// profile and asks the model for candidate code.
func (o *Orchestrator) generate(ctx context.Context, sess *Session, iterative bool) error {
	queries := make([]string, 0, len(sess.Components))
	for _, ref := range sess.Components {
		queries = append(queries, componentDocQuery(ref.Title))
	}
	snippets, err := o.services.Docs.Lookup(ctx, queries, retriever.BroadProfile)
	if err != nil {
		return fmt.Errorf("retrieve component docs: %w", err)
	}
	docs := strings.Join(snippets, "\n\n")

	var messages []llm.Message
	if iterative {
		messages = []llm.Message{
			llm.System(coderSystem(o.cfg.UILibrary)),
			llm.User(coderIterPrompt(sess.Query, sess.NewQuery, sess.Code, sess.Instructions, docs)),
		}
	} else {
		messages = []llm.Message{
			llm.System(coderSystem(o.cfg.UILibrary)),
			llm.User(coderPrompt(sess.Query+" "+describeRefs(sess.Components), docs, CodeSample(o.cfg.UILibrary))),
		}
	}
	resp, err := o.services.Model.Chat(ctx, messages, &o.genOpts)
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}
	sess.Code = StripFences(resp.Text)
	return nil
}

// repairOnce builds the repair plan from the outstanding diagnostics, looks
// up supporting documentation with the narrow profile, and asks the model for
// a fixed artifact.
func (o *Orchestrator) repairOnce(ctx context.Context, sess *Session) error {
	plan := repair.Build(sess.Code, sess.Diagnostics)
	info := repair.NoExtraInfo
	if len(plan.Queries) > 0 {
		snippets, err := o.services.Docs.Lookup(ctx, plan.Queries, retriever.NarrowProfile)
		if err != nil {
			return fmt.Errorf("retrieve repair docs: %w", err)
		}
		if len(snippets) > 0 {
			info = strings.Join(snippets, "\n\n")
		}
	}
	resp, err := o.services.Model.Chat(ctx, []llm.Message{
		llm.System(repairSystem),
		llm.User(repairPrompt(plan.AnnotatedCode, info)),
	}, &o.genOpts)
	if err != nil {
		return fmt.Errorf("repair code: %w", err)
	}
	sess.Code = StripFences(resp.Text)
	return nil
}

// IsSelectionError reports whether err is a selection-stage schema failure.
func IsSelectionError(err error) bool {
	return errors.Is(err, ErrSelection)
}
