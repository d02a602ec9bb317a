package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	commandLabelTemplateConstant            = "%s%s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	commandArgumentsJoinSeparatorConstant   = " "
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
	defaultWorkingDirectoryLabelConstant    = "current directory"
	fallbackUnknownValueLabelConstant       = "unknown"
	schemeSeparatorConstant                 = "://"
	credentialsSeparatorConstant            = "@"
	pathSeparatorConstant                   = "/"
	redactedCredentialsConstant             = "***"
)

const (
	gitCloneSubcommandNameConstant      = "clone"
	gitSwitchSubcommandNameConstant     = "switch"
	gitResetSubcommandNameConstant      = "reset"
	gitDiffSubcommandNameConstant       = "diff"
	gitForEachRefSubcommandNameConstant = "for-each-ref"
	gitShowSubcommandNameConstant       = "show"
	gitCloneMinimumArgumentCount        = 3
	gitSwitchMinimumArgumentCount       = 2
)

const (
	gitCloneStartTemplateConstant                   = "Cloning %s into %s"
	gitCloneSuccessTemplateConstant                 = "Cloned %s into %s"
	gitCloneFailureTemplateConstant                 = "Failed to clone %s into %s (exit code %d%s)"
	gitCloneExecutionFailureTemplateConstant        = "Unable to clone %s into %s: %s"
	gitSwitchStartTemplateConstant                  = "Switching %s to branch %s"
	gitSwitchSuccessTemplateConstant                = "%s now on branch %s"
	gitSwitchFailureTemplateConstant                = "Failed to switch %s to branch %s (exit code %d%s)"
	gitSwitchExecutionFailureTemplateConstant       = "Unable to switch %s to branch %s: %s"
	gitResetStartTemplateConstant                   = "Discarding working tree changes in %s"
	gitResetSuccessTemplateConstant                 = "Discarded working tree changes in %s"
	gitResetFailureTemplateConstant                 = "Failed to discard working tree changes in %s (exit code %d%s)"
	gitResetExecutionFailureTemplateConstant        = "Unable to discard working tree changes in %s: %s"
	gitDiffStartTemplateConstant                    = "Listing modified files in %s"
	gitDiffSuccessTemplateConstant                  = "Listed modified files in %s"
	gitDiffFailureTemplateConstant                  = "Failed to list modified files in %s (exit code %d%s)"
	gitDiffExecutionFailureTemplateConstant         = "Unable to list modified files in %s: %s"
	gitForEachRefStartTemplateConstant              = "Listing remote branches in %s"
	gitForEachRefSuccessTemplateConstant            = "Listed remote branches in %s"
	gitForEachRefFailureTemplateConstant            = "Failed to list remote branches in %s (exit code %d%s)"
	gitForEachRefExecutionFailureTemplateConstant   = "Unable to list remote branches in %s: %s"
	gitShowStartTemplateConstant                    = "Reading commit metadata in %s"
	gitShowSuccessTemplateConstant                  = "Read commit metadata in %s"
	gitShowFailureTemplateConstant                  = "Failed to read commit metadata in %s (exit code %d%s)"
	gitShowExecutionFailureTemplateConstant         = "Unable to read commit metadata in %s: %s"
	notebookCleanerStartTemplateConstant            = "Stripping outputs from %s"
	notebookCleanerSuccessTemplateConstant          = "Stripped outputs from %s"
	notebookCleanerFailureTemplateConstant          = "Failed to strip outputs from %s (exit code %d%s)"
	notebookCleanerExecutionFailureTemplateConstant = "Unable to strip outputs from %s: %s"
)

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

// RedactArguments replaces credentials embedded in URL arguments so tokens never reach log output.
func RedactArguments(arguments []string) []string {
	if len(arguments) == 0 {
		return nil
	}
	redacted := make([]string, 0, len(arguments))
	for _, argument := range arguments {
		redacted = append(redacted, redactURLCredentials(argument))
	}
	return redacted
}

func redactURLCredentials(argument string) string {
	schemeIndex := strings.Index(argument, schemeSeparatorConstant)
	if schemeIndex == -1 {
		return argument
	}
	authorityStart := schemeIndex + len(schemeSeparatorConstant)
	remainder := argument[authorityStart:]
	authorityEnd := strings.Index(remainder, pathSeparatorConstant)
	if authorityEnd == -1 {
		authorityEnd = len(remainder)
	}
	credentialsEnd := strings.LastIndex(remainder[:authorityEnd], credentialsSeparatorConstant)
	if credentialsEnd == -1 {
		return argument
	}
	return argument[:authorityStart] + redactedCredentialsConstant + remainder[credentialsEnd:]
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	switch command.Name {
	case CommandGit:
		return formatter.describeGitMessage(command, result, failure, stage)
	case CommandNotebookCleaner:
		return formatter.describeNotebookCleanerMessage(command, result, failure, stage)
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	if len(arguments) == 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	workingDirectory := formatter.workingDirectoryLabel(command)
	switch strings.TrimSpace(arguments[0]) {
	case gitCloneSubcommandNameConstant:
		if len(arguments) < gitCloneMinimumArgumentCount {
			return formatter.buildGenericMessage(command, result, failure, stage)
		}
		source := redactURLCredentials(arguments[len(arguments)-2])
		destination := arguments[len(arguments)-1]
		return formatter.selectMessage(stage, result, failure,
			fmt.Sprintf(gitCloneStartTemplateConstant, source, destination),
			fmt.Sprintf(gitCloneSuccessTemplateConstant, source, destination),
			func(exitCode int, suffix string) string {
				return fmt.Sprintf(gitCloneFailureTemplateConstant, source, destination, exitCode, suffix)
			},
			func(reason string) string {
				return fmt.Sprintf(gitCloneExecutionFailureTemplateConstant, source, destination, reason)
			},
		)
	case gitSwitchSubcommandNameConstant:
		branch := fallbackUnknownValueLabelConstant
		if len(arguments) >= gitSwitchMinimumArgumentCount {
			branch = arguments[len(arguments)-1]
		}
		return formatter.selectMessage(stage, result, failure,
			fmt.Sprintf(gitSwitchStartTemplateConstant, workingDirectory, branch),
			fmt.Sprintf(gitSwitchSuccessTemplateConstant, workingDirectory, branch),
			func(exitCode int, suffix string) string {
				return fmt.Sprintf(gitSwitchFailureTemplateConstant, workingDirectory, branch, exitCode, suffix)
			},
			func(reason string) string {
				return fmt.Sprintf(gitSwitchExecutionFailureTemplateConstant, workingDirectory, branch, reason)
			},
		)
	case gitResetSubcommandNameConstant:
		return formatter.describeDirectoryMessage(stage, result, failure, workingDirectory,
			gitResetStartTemplateConstant, gitResetSuccessTemplateConstant, gitResetFailureTemplateConstant, gitResetExecutionFailureTemplateConstant)
	case gitDiffSubcommandNameConstant:
		return formatter.describeDirectoryMessage(stage, result, failure, workingDirectory,
			gitDiffStartTemplateConstant, gitDiffSuccessTemplateConstant, gitDiffFailureTemplateConstant, gitDiffExecutionFailureTemplateConstant)
	case gitForEachRefSubcommandNameConstant:
		return formatter.describeDirectoryMessage(stage, result, failure, workingDirectory,
			gitForEachRefStartTemplateConstant, gitForEachRefSuccessTemplateConstant, gitForEachRefFailureTemplateConstant, gitForEachRefExecutionFailureTemplateConstant)
	case gitShowSubcommandNameConstant:
		return formatter.describeDirectoryMessage(stage, result, failure, workingDirectory,
			gitShowStartTemplateConstant, gitShowSuccessTemplateConstant, gitShowFailureTemplateConstant, gitShowExecutionFailureTemplateConstant)
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeNotebookCleanerMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	if len(arguments) == 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
	notebookPath := arguments[len(arguments)-1]
	return formatter.describeDirectoryMessage(stage, result, failure, notebookPath,
		notebookCleanerStartTemplateConstant, notebookCleanerSuccessTemplateConstant, notebookCleanerFailureTemplateConstant, notebookCleanerExecutionFailureTemplateConstant)
}

func (formatter CommandMessageFormatter) describeDirectoryMessage(stage messageStage, result ExecutionResult, failure error, subject string, startTemplate string, successTemplate string, failureTemplate string, executionFailureTemplate string) string {
	return formatter.selectMessage(stage, result, failure,
		fmt.Sprintf(startTemplate, subject),
		fmt.Sprintf(successTemplate, subject),
		func(exitCode int, suffix string) string {
			return fmt.Sprintf(failureTemplate, subject, exitCode, suffix)
		},
		func(reason string) string {
			return fmt.Sprintf(executionFailureTemplate, subject, reason)
		},
	)
}

func (formatter CommandMessageFormatter) selectMessage(stage messageStage, result ExecutionResult, failure error, startMessage string, successMessage string, failureMessage func(int, string) string, executionFailureMessage func(string) string) string {
	switch stage {
	case messageStageStart:
		return startMessage
	case messageStageSuccess:
		return successMessage
	case messageStageFailure:
		return failureMessage(result.ExitCode, formatter.standardErrorSuffix(result.StandardError))
	default:
		return executionFailureMessage(formatter.failureReason(failure))
	}
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	label := formatter.commandLabel(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, label)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, label)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, label, result.ExitCode, formatter.standardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, label, formatter.failureReason(failure))
	}
}

func (formatter CommandMessageFormatter) commandLabel(command ShellCommand) string {
	commandParts := []string{string(command.Name)}
	if len(command.Details.Arguments) > 0 {
		commandParts = append(commandParts, RedactArguments(command.Details.Arguments)...)
	}
	commandLabel := strings.Join(commandParts, commandArgumentsJoinSeparatorConstant)

	workingDirectorySuffix := emptyStringConstant
	if trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory); len(trimmedWorkingDirectory) > 0 {
		workingDirectorySuffix = fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
	}
	return fmt.Sprintf(commandLabelTemplateConstant, commandLabel, workingDirectorySuffix)
}

func (formatter CommandMessageFormatter) workingDirectoryLabel(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return trimmedWorkingDirectory
}

func (formatter CommandMessageFormatter) standardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) failureReason(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}
