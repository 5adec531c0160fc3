package app

// Command selects the application's run mode.
type Command string

const (
	// CommandServe runs the long-lived classify/train consumer workers.
	CommandServe Command = "serve"
	// CommandCrawl runs one crawl scheduling pass, optionally for one source name.
	CommandCrawl Command = "crawl"
	// CommandWatch runs crawl passes on the configured interval until stopped.
	CommandWatch Command = "watch"
	// CommandRequeue republishes items missing a score.
	CommandRequeue Command = "requeue"
	// CommandTrainSelf republishes previously negative items for self-training.
	CommandTrainSelf Command = "trainself"
	// CommandStats persists a snapshot of pipeline counters.
	CommandStats Command = "stats"
)

// ParseCommand resolves the subcommand and its remaining arguments.
// No or unknown arguments default to serve.
func ParseCommand(args []string) (Command, []string) {
	if len(args) == 0 {
		return CommandServe, nil
	}

	switch args[0] {
	case "crawl":
		return CommandCrawl, args[1:]
	case "watch":
		return CommandWatch, args[1:]
	case "requeue":
		return CommandRequeue, args[1:]
	case "trainself":
		return CommandTrainSelf, args[1:]
	case "stats":
		return CommandStats, args[1:]
	case "serve":
		return CommandServe, args[1:]
	default:
		return CommandServe, args
	}
}
