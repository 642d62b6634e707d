package domain

import "context"

// Task is a unit of background maintenance work run on a schedule.
type Task func(ctx context.Context) error

// Schedular runs named tasks on cron specs until its context is cancelled.
type Schedular interface {
	Start(ctx context.Context) error

	AddTask(name, spec string, task Task) error
	RemoveTask(name string) error
}
