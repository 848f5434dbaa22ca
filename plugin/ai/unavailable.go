package ai

import "context"

// unavailableService stands in for the generation backend when none is
// configured. The rest of the server keeps working; every generation
// call fails with the configuration error, which reaches the user as a
// normal generation fault.
type unavailableService struct {
	err error
}

// NewUnavailableLLMService returns an LLMService whose calls all fail
// with the given configuration error.
func NewUnavailableLLMService(err error) LLMService {
	return &unavailableService{err: err}
}

func (s *unavailableService) Chat(_ context.Context, _ []Message) (string, error) {
	return "", s.err
}

func (s *unavailableService) ChatStream(_ context.Context, _ []Message) (<-chan any, <-chan error) {
	out := make(chan any)
	errs := make(chan error, 1)
	errs <- s.err
	close(out)
	close(errs)
	return out, errs
}
