package cloudy

import (
	"bufio"
	"path/filepath"
)

// Interpreter is the main cloudy interpreter
type Interpreter struct {
	config   *Config
	logger   *Logger
	builtins *BuiltinRegistry
	cache    *ScriptCache
	stdin    *bufio.Reader
	runDepth int
}

// New creates a new interpreter with the standard builtins registered
func New(config *Config) *Interpreter {
	if config == nil {
		config = DefaultConfig()
	}
	config = config.withDefaults()

	logger := NewLogger(config.Debug, config.LogOutput, config.LogOutput)
	if len(config.LogCategories) == 0 {
		logger.EnableAllCategories()
	}
	for _, cat := range config.LogCategories {
		logger.EnableCategory(cat)
	}

	in := &Interpreter{
		config:   config,
		logger:   logger,
		builtins: NewBuiltinRegistry(),
		cache:    NewScriptCache(config.ScriptCacheTTL, logger),
		stdin:    bufio.NewReader(config.Stdin),
	}
	in.registerStandardBuiltins()
	return in
}

// Logger returns the interpreter's logger
func (in *Interpreter) Logger() *Logger {
	return in.logger
}

// Config returns a copy of the active configuration
func (in *Interpreter) Config() Config {
	return *in.config
}

// RegisterBuiltin adds or replaces a native function visible to every program
// started after the call
func (in *Interpreter) RegisterBuiltin(name string, params []string, handler BuiltinHandler) {
	in.builtins.Register(name, params, handler)
	in.logger.DebugCat(CatBuiltin, "registered builtin %s(%d)", name, len(params))
}

// NewGlobalContext creates the root "<program>" frame with null and every builtin bound
func (in *Interpreter) NewGlobalContext() *Context {
	env := NewEnvironment(nil)
	ctx := NewContext("<program>", nil, Position{}, env)
	env.Set("null", NewNull().SetContext(ctx))
	for _, def := range in.builtins.all() {
		env.Set(def.name, (&BuiltinFunction{def: def}).SetContext(ctx))
	}
	return ctx
}

// parseSource lexes and parses text into a program block
func (in *Interpreter) parseSource(name, text string) (Node, *Error) {
	tokens, err := NewLexer(name, text).Tokenize()
	if err != nil {
		in.logger.DebugCat(CatLex, "lex failed: %s", err.Message())
		return nil, err
	}
	in.logger.DebugCat(CatLex, "%s: %d tokens", name, len(tokens))

	program, err := NewParser(tokens).Parse()
	if err != nil {
		in.logger.DebugCat(CatParse, "parse failed: %s", err.Message())
		return nil, err
	}
	return program, nil
}

// execute evaluates a parsed program in ctx and returns the last statement value
func (in *Interpreter) execute(program Node, ctx *Context) (Value, *Error) {
	block, ok := program.(*Block)
	if !ok {
		block = newBlock([]Node{program}, program.Start(), program.End())
	}

	var last Value = NewNull().SetContext(ctx)
	for _, stmt := range block.Statements {
		res := in.Evaluate(stmt, ctx)
		switch res.Kind {
		case ResultError:
			return nil, in.finish(res.Err)
		case ResultReturn:
			in.logger.DebugCat(CatRun, "top-level return")
			return res.Value, nil
		case ResultBreak, ResultContinue:
			return nil, in.finish(strayLoopSignal(res, ctx))
		}
		last = res.Value
	}
	return last, nil
}

// finish applies output preferences to an error leaving the interpreter
func (in *Interpreter) finish(err *Error) *Error {
	if !in.config.ShowTraceback {
		err.WithoutTraceback()
	}
	return err
}

// runIn lexes, parses and evaluates text in ctx
func (in *Interpreter) runIn(name, text string, ctx *Context) (Value, *Error) {
	program, err := in.parseSource(name, text)
	if err != nil {
		return nil, err
	}
	return in.execute(program, ctx)
}

// Run executes text as a complete program with a fresh global scope.
// The result is the value of the last top-level statement.
func (in *Interpreter) Run(sourceName, text string) (Value, error) {
	in.logger.DebugCat(CatRun, "run %s", sourceName)
	v, err := in.runIn(sourceName, text, in.NewGlobalContext())
	if err != nil {
		return nil, err
	}
	return v, nil
}

// RunFile executes the script at path with a fresh global scope. Parsed
// programs are reused from the script cache while the file is unchanged.
func (in *Interpreter) RunFile(path string) (Value, error) {
	program, err := in.cache.Program(in.resolvePath(path), in.parseSource)
	if err != nil {
		return nil, err
	}
	v, runErr := in.execute(program, in.NewGlobalContext())
	if runErr != nil {
		return nil, runErr
	}
	return v, nil
}

// resolvePath anchors relative script paths at ScriptDir
func (in *Interpreter) resolvePath(path string) string {
	if filepath.IsAbs(path) || in.config.ScriptDir == "" {
		return path
	}
	return filepath.Join(in.config.ScriptDir, path)
}

// Session keeps one global scope across many evaluations, as the REPL does
type Session struct {
	in   *Interpreter
	name string
	ctx  *Context
}

// NewSession starts a session whose sources are reported under name
func (in *Interpreter) NewSession(name string) *Session {
	return &Session{in: in, name: name, ctx: in.NewGlobalContext()}
}

// Eval runs text in the session scope
func (s *Session) Eval(text string) (Value, error) {
	v, err := s.in.runIn(s.name, text, s.ctx)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Lookup returns a global variable of the session
func (s *Session) Lookup(name string) (Value, bool) {
	return s.ctx.Env.Get(name)
}

// Globals returns the sorted names bound in the session scope
func (s *Session) Globals() []string {
	return s.ctx.Env.Names()
}

// Run executes text with a default interpreter
func Run(sourceName, text string) (Value, error) {
	return New(nil).Run(sourceName, text)
}
