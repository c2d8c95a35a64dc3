// internal/platform/ui/noop_presenter.go
package ui

import "time"

// NoopPresenter descarta todo el progreso. Se usa en modo quiet y en tests.
type NoopPresenter struct{}

var _ Presenter = (*NoopPresenter)(nil)

func NewNoopPresenter() *NoopPresenter { return &NoopPresenter{} }

func (*NoopPresenter) Start(RunInfo) {}
func (*NoopPresenter) StartUnit(UnitInfo) {}
func (*NoopPresenter) FinishUnit(int, time.Duration) {}
func (*NoopPresenter) StartStage(int, string) {}
func (*NoopPresenter) FinishStage(string, Status, time.Duration, string) {}
func (*NoopPresenter) Info(string) {}
func (*NoopPresenter) Warning(string) {}
func (*NoopPresenter) Error(string) {}
func (*NoopPresenter) Finish(RunStats) {}
func (*NoopPresenter) Close() error { return nil }
