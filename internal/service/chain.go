package service

// stage is one step of a validation pipeline.
type stage[T any] func(T) error

// chain runs stages in order and stops at the first failure.
func chain[T any](v T, stages ...stage[T]) error {
	for _, s := range stages {
		if err := s(v); err != nil {
			return err
		}
	}
	return nil
}
