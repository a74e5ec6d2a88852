package cmd

import (
	"context"
	"fmt"

	"github.com/AlecAivazis/survey/v2"

	"github.com/cotandem/kai/internal/command"
	"github.com/cotandem/kai/internal/container"
)

// newDockerRuntime connects to the Docker daemon and verifies it answers.
// An unreachable daemon is a missing prerequisite: nothing else can run.
func newDockerRuntime(ctx context.Context) (*container.DockerRuntime, error) {
	rt, err := container.NewDockerRuntime()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", command.ErrMissingPrerequisite, err)
	}

	if err := rt.Ping(ctx); err != nil {
		return nil, fmt.Errorf("%w: Docker daemon unreachable: %v", command.ErrMissingPrerequisite, err)
	}

	return rt, nil
}

// promptCredentials asks for registry credentials interactively.
func promptCredentials(registry string) (string, string, error) {
	var username, password string

	if err := survey.AskOne(&survey.Input{
		Message: fmt.Sprintf("Username for %s:", registry),
	}, &username, survey.WithValidator(survey.Required)); err != nil {
		return "", "", err
	}

	if err := survey.AskOne(&survey.Password{
		Message: fmt.Sprintf("Password for %s:", registry),
	}, &password, survey.WithValidator(survey.Required)); err != nil {
		return "", "", err
	}

	return username, password, nil
}

// confirm asks a yes/no question, defaulting to no.
func confirm(message string) bool {
	answer := false
	prompt := &survey.Confirm{Message: message}
	if err := survey.AskOne(prompt, &answer); err != nil {
		return false
	}
	return answer
}
