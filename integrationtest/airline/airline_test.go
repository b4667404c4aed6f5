package airline

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyre-ai/gyre"
	"github.com/gyre-ai/gyre/integrationtest/testutil"
	"github.com/gyre-ai/gyre/internal/tt"
)

// TestRescheduleScenario runs the reschedule scenario against a live model.
//
// Scenario: customer John Smith (C001) missed his 9am flight and wants
// booking B001 moved to a later flight on the same day.
func TestRescheduleScenario(t *testing.T) {
	if os.Getenv("GYRE_TEST_XAI_KEY") == "" {
		t.Skip("GYRE_TEST_XAI_KEY not set, skipping live integration test")
	}

	gw, err := testutil.CreateGateway()
	require.NoError(t, err)

	fixture := NewFixture()
	result, err := testutil.RunScenario(context.Background(), os.Stdout,
		testutil.DefaultTestConfig(), gw, RescheduleScenario(fixture))

	require.NoError(t, err)
	assert.Equal(t, gyre.StatusFinished, result.Status)
}

// TestCancellationScenario runs the cancellation scenario against a live
// model.
func TestCancellationScenario(t *testing.T) {
	if os.Getenv("GYRE_TEST_XAI_KEY") == "" {
		t.Skip("GYRE_TEST_XAI_KEY not set, skipping live integration test")
	}

	gw, err := testutil.CreateGateway()
	require.NoError(t, err)

	fixture := NewFixture()
	result, err := testutil.RunScenario(context.Background(), os.Stdout,
		testutil.DefaultTestConfig(), gw, CancellationScenario(fixture))

	require.NoError(t, err)
	assert.Equal(t, gyre.StatusFinished, result.Status)
}

// TestScriptedRescheduleFlow drives the real airline tools through the full
// loop with a scripted gateway and checks the exact transcript.
func TestScriptedRescheduleFlow(t *testing.T) {
	fixture := NewFixture()

	gw := tt.NewScriptedGateway().
		AddToolCalls(tt.Call("c1", "get_booking_info", map[string]any{
			"booking_id": "B001",
		})).
		AddToolCalls(tt.Call("c2", "reschedule_booking", map[string]any{
			"booking_id":    "B001",
			"flight_number": "GY105",
		})).
		AddFinal("Done! Your booking B001 is now on flight GY105 departing at 14:30.")

	scenario := testutil.Scenario{
		Name:          "airline-reschedule-scripted",
		HeaderTitle:   "AIRLINE: SCRIPTED RESCHEDULE",
		SystemPrompt:  "You are a test agent.",
		UserRequest:   "Please move my booking B001 to the 14:30 flight.",
		MaxIterations: 10,
		Tools:         fixture.NewRegistry(),
	}

	var out bytes.Buffer
	result, err := testutil.RunScenario(context.Background(), &out,
		testutil.TestConfig{}, gw, scenario)

	require.NoError(t, err)
	assert.Equal(t, gyre.StatusFinished, result.Status)

	expected := `[system] You are a test agent.
[user] Please move my booking B001 to the 14:30 flight.
[assistant] -> get_booking_info {"booking_id":"B001"}
[tool_result c1] {"id":"B001","customer_id":"C001","flight_number":"GY100","status":"confirmed"}
[assistant] -> reschedule_booking {"booking_id":"B001","flight_number":"GY105"}
[tool_result c2] Booking B001 moved to flight GY105 departing 14:30.
[assistant] Done! Your booking B001 is now on flight GY105 departing at 14:30.
`
	diff := testutil.DiffTranscripts(expected, testutil.FormatTranscript(result.Trace))
	assert.Empty(t, diff, "transcript mismatch:\n%s", diff)

	// The backend actually changed.
	booking, ok := fixture.Booking("B001")
	require.True(t, ok)
	assert.Equal(t, "GY105", booking.FlightNumber)

	target, ok := fixture.Flight("GY105")
	require.True(t, ok)
	assert.Equal(t, 11, target.SeatsLeft)

	previous, ok := fixture.Flight("GY100")
	require.True(t, ok)
	assert.Equal(t, 1, previous.SeatsLeft)
}

// TestScriptedEscalation checks that escalate_to_human ends the run with
// the tool's output, without another model round.
func TestScriptedEscalation(t *testing.T) {
	fixture := NewFixture()

	gw := tt.NewScriptedGateway().
		AddToolCalls(tt.Call("c1", "escalate_to_human", map[string]any{
			"summary": "customer demands a free upgrade",
		}))

	scenario := testutil.Scenario{
		Name:          "airline-escalation-scripted",
		HeaderTitle:   "AIRLINE: SCRIPTED ESCALATION",
		SystemPrompt:  "You are a test agent.",
		UserRequest:   "I demand a free upgrade to first class.",
		MaxIterations: 10,
		Tools:         fixture.NewRegistry(),
	}

	var out bytes.Buffer
	result, err := testutil.RunScenario(context.Background(), &out,
		testutil.TestConfig{}, gw, scenario)

	require.NoError(t, err)
	assert.Equal(t, gyre.StatusFinished, result.Status)
	assert.Contains(t, result.FinalText, "escalated to a human agent")
	assert.Equal(t, 1, gw.CallCount())
}

// TestScriptedFullFlight checks that a business failure (full flight) comes
// back as an observation the model can react to, not a run failure.
func TestScriptedFullFlight(t *testing.T) {
	fixture := NewFixture()

	gw := tt.NewScriptedGateway().
		AddToolCalls(tt.Call("c1", "reschedule_booking", map[string]any{
			"booking_id":    "B002",
			"flight_number": "GY100",
		})).
		AddFinal("Unfortunately flight GY100 is full. Would GY105 work instead?")

	scenario := testutil.Scenario{
		Name:          "airline-full-flight-scripted",
		HeaderTitle:   "AIRLINE: SCRIPTED FULL FLIGHT",
		SystemPrompt:  "You are a test agent.",
		UserRequest:   "Move my booking B002 to the 9am flight.",
		MaxIterations: 10,
		Tools:         fixture.NewRegistry(),
	}

	var out bytes.Buffer
	result, err := testutil.RunScenario(context.Background(), &out,
		testutil.TestConfig{}, gw, scenario)

	require.NoError(t, err)
	assert.Equal(t, gyre.StatusFinished, result.Status)

	// Third message is the observation for the failed reschedule.
	require.GreaterOrEqual(t, len(result.Trace), 4)
	observation := result.Trace[3]
	assert.Equal(t, gyre.RoleToolResult, observation.Role)
	assert.Contains(t, observation.Content, "no seats left")

	// Booking untouched.
	booking, ok := fixture.Booking("B002")
	require.True(t, ok)
	assert.Equal(t, "GY110", booking.FlightNumber)
}
