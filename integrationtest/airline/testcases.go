package airline

import (
	"context"
	"io"

	"github.com/gyre-ai/gyre/integrationtest/testutil"
)

// RescheduleScenario builds the flight-change scenario over a fresh fixture.
func RescheduleScenario(f *Fixture) testutil.Scenario {
	return testutil.Scenario{
		Name:         "airline-reschedule",
		HeaderTitle:  "AIRLINE: RESCHEDULE REQUEST",
		SystemPrompt: SystemPrompt,
		UserRequest: "Hi, this is John Smith, customer C001. My meeting ran late " +
			"and I can't make my 9am flight. Can you move booking B001 to a " +
			"later flight today?",
		MaxIterations: 10,
		Tools:         f.NewRegistry(),
	}
}

// CancellationScenario builds the cancellation scenario over a fresh fixture.
func CancellationScenario(f *Fixture) testutil.Scenario {
	return testutil.Scenario{
		Name:         "airline-cancellation",
		HeaderTitle:  "AIRLINE: CANCELLATION REQUEST",
		SystemPrompt: SystemPrompt,
		UserRequest: "Hello, I'm Maria Garcia (C002). Something came up and I " +
			"need to cancel my booking B002. Will I get a refund?",
		MaxIterations: 10,
		Tools:         f.NewRegistry(),
	}
}

// TestCases lists the airline scenarios for the interactive CLI. Each run
// uses a live model and a fresh fixture.
func TestCases() []testutil.TestCase {
	return []testutil.TestCase{
		{
			Name:        "Airline Reschedule",
			Description: "Customer moves a booking to a later flight",
			Run: func(ctx context.Context, w io.Writer, config testutil.TestConfig) error {
				gw, err := testutil.CreateGateway()
				if err != nil {
					return err
				}
				_, err = testutil.RunScenario(ctx, w, config, gw, RescheduleScenario(NewFixture()))
				return err
			},
		},
		{
			Name:        "Airline Cancellation",
			Description: "Customer cancels a booking and asks about refunds",
			Run: func(ctx context.Context, w io.Writer, config testutil.TestConfig) error {
				gw, err := testutil.CreateGateway()
				if err != nil {
					return err
				}
				_, err = testutil.RunScenario(ctx, w, config, gw, CancellationScenario(NewFixture()))
				return err
			},
		},
	}
}
