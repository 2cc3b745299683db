package eval

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"agentic"
	"agentic/observers"
	"agentic/tools"
)

// RunResult bundles everything an evaluation run produced.
type RunResult struct {
	Result   *agentic.Result
	Messages []agentic.Message
	Report   Report
	Checks   []CheckResult
	Passed   bool
}

// Runner drives an agent against a mock filesystem scenario and validates
// the resulting trace.
type Runner struct {
	llm      *agentic.LLM
	fs       Filesystem
	prompt   string
	initial  string
	maxTurns int
	trace    bool
	out      io.Writer
}

// NewRunner creates a runner for the basic built-in scenario.
func NewRunner(llm *agentic.LLM) *Runner {
	return &Runner{
		llm:      llm,
		fs:       BasicFilesystem,
		prompt:   FindTestFilesPrompt,
		initial:  BasicInitialPath,
		maxTurns: 15,
		out:      os.Stdout,
	}
}

// WithScenario replaces the filesystem, prompt and initial path. Returns
// the runner for chaining.
func (r *Runner) WithScenario(fs Filesystem, prompt, initialPath string) *Runner {
	r.fs = fs
	r.prompt = prompt
	r.initial = initialPath
	return r
}

// WithMaxTurns sets the agent's turn limit. Returns the runner for
// chaining.
func (r *Runner) WithMaxTurns(n int) *Runner {
	r.maxTurns = n
	return r
}

// WithTrace enables console tracing of the run. Returns the runner for
// chaining.
func (r *Runner) WithTrace(trace bool) *Runner {
	r.trace = trace
	return r
}

// WithOutput redirects report output. Returns the runner for chaining.
func (r *Runner) WithOutput(w io.Writer) *Runner {
	r.out = w
	return r
}

// Run executes the scenario and validates the trace against mechanically
// derived ground truth.
func (r *Runner) Run(ctx context.Context) (*RunResult, error) {
	gt := GetGroundTruth(r.fs)

	toolset := agentic.NewToolset(
		NewMockListDirectory(r.fs),
		tools.NewCalculator(),
	)

	agent := agentic.NewAgent(r.llm, toolset).WithMaxTurns(r.maxTurns)
	if r.trace {
		agent = agent.WithObservers(observers.NewConsoleTracer())
	}

	result, err := agent.Run(ctx, r.prompt)
	if err != nil {
		return nil, fmt.Errorf("agent run failed: %w", err)
	}

	messages := agent.Messages()
	report := ValidateTrace(messages, gt, r.initial, result)
	checks := RunAllChecks(messages, gt)

	checksPassed := true
	for _, c := range checks {
		if !c.Passed {
			checksPassed = false
			break
		}
	}

	run := &RunResult{
		Result:   result,
		Messages: messages,
		Report:   report,
		Checks:   checks,
		Passed:   report.Passed && checksPassed,
	}
	r.printReport(run, gt)
	return run, nil
}

func (r *Runner) printReport(run *RunResult, gt GroundTruth) {
	w := r.out
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintln(w, "VALIDATION REPORT")
	fmt.Fprintln(w, strings.Repeat("=", 60))

	fmt.Fprintf(w, "Expected answer: %d (%d test files)\n",
		gt.ExpectedAnswer, gt.NumTestFiles)
	if run.Report.Answer.FinalAnswer != nil {
		fmt.Fprintf(w, "Agent answer:    %d\n", *run.Report.Answer.FinalAnswer)
	} else {
		fmt.Fprintln(w, "Agent answer:    (none)")
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%s Answer correct and grounded\n", mark(run.Report.Answer.Passed))
	for _, issue := range run.Report.Answer.Issues {
		fmt.Fprintf(w, "    - %s\n", issue)
	}

	fmt.Fprintf(w, "%s Exploration complete\n", mark(run.Report.Completeness.Passed))
	for _, p := range run.Report.Completeness.MissingCalls {
		fmt.Fprintf(w, "    - never listed: %s\n", p)
	}

	fmt.Fprintf(w, "%s Trace grounded (%d violations, %d warnings)\n",
		mark(run.Report.Trace.Passed),
		len(run.Report.Trace.Violations), len(run.Report.Trace.Warnings))
	for _, v := range run.Report.Trace.Violations {
		fmt.Fprintf(w, "    - [%s] %s\n", v.Type, v.Message)
	}

	fmt.Fprintln(w)
	for _, c := range run.Checks {
		fmt.Fprintf(w, "%s %s: %s\n", mark(c.Passed), c.Name, c.Message)
	}

	fmt.Fprintln(w)
	m := run.Report.Trace.Metrics
	fmt.Fprintf(w, "Tool calls: %d total (%d list_directory, %d calculator)\n",
		m.TotalToolCalls, m.ListDirCalls, m.CalculatorCalls)

	fmt.Fprintln(w, strings.Repeat("=", 60))
	if run.Passed {
		fmt.Fprintln(w, "RESULT: PASS")
	} else {
		fmt.Fprintln(w, "RESULT: FAIL")
	}
	fmt.Fprintln(w, strings.Repeat("=", 60))
}

func mark(ok bool) string {
	if ok {
		return "✓"
	}
	return "✗"
}
