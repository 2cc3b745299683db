package eval

// BasicFilesystem is the built-in evaluation scenario: a Python project
// tree whose test_*.py files sum to 71831 bytes. The __pycache__
// directories are decoys the agent must skip, and the .pyc copies of test
// modules are decoy sizes that must not be counted.
var BasicFilesystem = Filesystem{
	"framework": map[string]any{
		"agents.py":    18104,
		"config.py":    1876,
		"errors.py":    2310,
		"llm.py":       15482,
		"messages.py":  3640,
		"observers.py": 980,
		"tools.py":     2714,
		"__pycache__": map[string]any{
			"agents.cpython-311.pyc": 22000,
			"llm.cpython-311.pyc":    18500,
		},
		"tests": map[string]any{
			"test_agents.py":    6220,
			"test_config.py":    1845,
			"test_llm.py":       7331,
			"test_messages.py":  2204,
			"test_observers.py": 1592,
			"test_tools.py":     3218,
			"__pycache__": map[string]any{
				"test_agents.cpython-311.pyc": 9000,
			},
			"fixtures": map[string]any{
				"sample_trace.json":      4100,
				"test_fixture_loader.py": 1210,
			},
		},
		"eval": map[string]any{
			"runner.py":          9145,
			"validator.py":       11026,
			"mock_tools.py":      2120,
			"test_validators.py": 8450,
			"test_mock_tools.py": 2916,
			"test_runner.py":     10894,
			"scenarios": map[string]any{
				"basic.json":        1024,
				"test_scenarios.py": 1374,
			},
		},
		"integration": map[string]any{
			"test_e2e.py":         9120,
			"test_checkpoints.py": 4680,
			"test_resume.py":      10777,
			"helpers.py":          1530,
		},
	},
}

// BasicInitialPath is where exploration of BasicFilesystem must begin.
const BasicInitialPath = "framework"

// FindTestFilesPrompt is the task given to the agent for the basic
// scenario.
const FindTestFilesPrompt = `Explore the directory 'framework' recursively using the list_directory tool.
Find every Python test file (files named test_*.py) in the tree, skipping
any __pycache__ directories.

Then compute the total size in bytes of all the test files you found. You
must use the calculator tool for every arithmetic step - do not do any
math in your head.

When you are done, report the total size in bytes as your final answer.`
