package parking

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	okColor    = color.New(color.FgGreen)
	warnColor  = color.New(color.FgYellow)
	errorColor = color.New(color.FgRed)
)

type InstrumentedShell struct {
	attendant *InstrumentedAttendant
	scanner   *bufio.Scanner
	out       io.Writer
	telemetry *TelemetryProvider
}

func NewInstrumentedShell(attendant *InstrumentedAttendant, telemetry *TelemetryProvider, in io.Reader, out io.Writer) *InstrumentedShell {
	return &InstrumentedShell{
		attendant: attendant,
		scanner:   bufio.NewScanner(in),
		out:       out,
		telemetry: telemetry,
	}
}

func (s *InstrumentedShell) Run(ctx context.Context) {
	tracer := s.telemetry.Tracer()
	ctx, span := tracer.Start(ctx, "shell.run")
	defer span.End()

	span.AddEvent("shell_started")

	for ctx.Err() == nil {
		if !s.scanner.Scan() {
			break
		}

		input := strings.TrimSpace(s.scanner.Text())
		if input == "" {
			continue
		}

		cmdCtx, cmdSpan := tracer.Start(ctx, "shell.process_command",
			trace.WithAttributes(attribute.String("command.input", input)))

		s.processCommand(cmdCtx, input)
		cmdSpan.End()
	}

	span.AddEvent("shell_ended")
}

func (s *InstrumentedShell) processCommand(ctx context.Context, input string) {
	span := trace.SpanFromContext(ctx)

	parts := strings.Fields(input)
	if len(parts) == 0 {
		return
	}

	command := strings.ToLower(parts[0])
	span.SetAttributes(attribute.String("command.name", command))

	switch command {
	case "enter":
		s.handleEnter(ctx, parts)
	case "exit":
		s.handleExit(ctx, parts)
	case "quote":
		s.handleQuote(ctx, parts)
	case "find":
		s.handleFind(ctx, parts)
	case "status":
		s.handleStatus(ctx)
	case "history":
		s.handleHistory(ctx)
	case "help":
		s.printUsage()
	default:
		span.AddEvent("unknown_command", trace.WithAttributes(
			attribute.String("unknown_command", command),
		))
		warnColor.Fprintf(s.out, "Unknown command: %s\n", command)
	}
}

func (s *InstrumentedShell) printUsage() {
	fmt.Fprintln(s.out, "Commands:")
	fmt.Fprintln(s.out, "  enter <plate> <car|motorcycle> [cc]")
	fmt.Fprintln(s.out, "  exit <plate>")
	fmt.Fprintln(s.out, "  quote <plate>")
	fmt.Fprintln(s.out, "  find <plate>")
	fmt.Fprintln(s.out, "  status")
	fmt.Fprintln(s.out, "  history")
}

func (s *InstrumentedShell) handleEnter(ctx context.Context, parts []string) {
	ctx, span := s.telemetry.Tracer().Start(ctx, "shell.enter_command")
	defer span.End()

	if len(parts) < 3 || len(parts) > 4 {
		span.AddEvent("invalid_arguments")
		fmt.Fprintln(s.out, "Usage: enter <plate> <car|motorcycle> [cc]")
		return
	}

	category, err := ParseCategory(parts[2])
	if err != nil {
		span.RecordError(err)
		errorColor.Fprintf(s.out, "Invalid category: %s\n", parts[2])
		return
	}

	displacement := 0
	if len(parts) == 4 {
		displacement, err = strconv.Atoi(parts[3])
		if err != nil || displacement < 0 {
			span.RecordError(fmt.Errorf("invalid engine displacement: %s", parts[3]))
			errorColor.Fprintln(s.out, "Invalid engine displacement")
			return
		}
	}

	vehicle, err := NewVehicle(parts[1], category, displacement)
	if err != nil {
		span.RecordError(err)
		errorColor.Fprintf(s.out, "Error: %s\n", err.Error())
		return
	}

	rec, err := s.attendant.Enter(ctx, vehicle)
	if err != nil {
		span.AddEvent("entry_failed")
		errorColor.Fprintf(s.out, "Entry rejected: %s\n", err.Error())
		return
	}

	span.AddEvent("entry_successful")
	okColor.Fprintf(s.out, "Entry registered for %s at %s\n",
		rec.Vehicle.Plate(), rec.EntryTime.Format(time.RFC3339))
}

func (s *InstrumentedShell) handleExit(ctx context.Context, parts []string) {
	ctx, span := s.telemetry.Tracer().Start(ctx, "shell.exit_command")
	defer span.End()

	if len(parts) != 2 {
		span.AddEvent("invalid_arguments")
		fmt.Fprintln(s.out, "Usage: exit <plate>")
		return
	}

	rec, err := s.attendant.Exit(ctx, parts[1])
	if err != nil {
		span.AddEvent("exit_failed")
		s.printLookupError(err)
		return
	}

	span.AddEvent("exit_successful")
	okColor.Fprintf(s.out, "Vehicle %s left. Amount charged: %d\n", parts[1], *rec.AmountCharged)
}

func (s *InstrumentedShell) handleQuote(ctx context.Context, parts []string) {
	ctx, span := s.telemetry.Tracer().Start(ctx, "shell.quote_command")
	defer span.End()

	if len(parts) != 2 {
		span.AddEvent("invalid_arguments")
		fmt.Fprintln(s.out, "Usage: quote <plate>")
		return
	}

	_, amount, err := s.attendant.Quote(ctx, parts[1])
	if err != nil {
		s.printLookupError(err)
		return
	}

	fmt.Fprintf(s.out, "Amount due for %s: %d\n", parts[1], amount)
}

func (s *InstrumentedShell) handleFind(ctx context.Context, parts []string) {
	ctx, span := s.telemetry.Tracer().Start(ctx, "shell.find_command")
	defer span.End()

	if len(parts) != 2 {
		span.AddEvent("invalid_arguments")
		fmt.Fprintln(s.out, "Usage: find <plate>")
		return
	}

	rec, err := s.attendant.Find(ctx, parts[1])
	if err != nil {
		span.AddEvent("vehicle_not_found")
		s.printLookupError(err)
		return
	}

	fmt.Fprintf(s.out, "%s\t%s\t%s\n", rec.Vehicle.Plate(), rec.Vehicle.Category(), rec.EntryTime.Format(time.RFC3339))
}

func (s *InstrumentedShell) handleStatus(ctx context.Context) {
	status, err := s.attendant.Status(ctx)
	if err != nil {
		errorColor.Fprintf(s.out, "Error: %s\n", err.Error())
		return
	}

	fmt.Fprintln(s.out, "Category\tOccupied\tLimit\tAvailable")
	for _, cs := range status.Categories {
		fmt.Fprintf(s.out, "%s\t%d\t\t%d\t%d\n", cs.Category, cs.Occupied, cs.Limit, cs.Available)
	}

	if len(status.Active) == 0 {
		fmt.Fprintln(s.out, "Parking lot is empty")
		return
	}

	fmt.Fprintln(s.out, "Plate\tCategory\tEntry")
	for _, rec := range status.Active {
		fmt.Fprintf(s.out, "%s\t%s\t%s\n", rec.Vehicle.Plate(), rec.Vehicle.Category(), rec.EntryTime.Format(time.RFC3339))
	}
}

func (s *InstrumentedShell) handleHistory(ctx context.Context) {
	records, err := s.attendant.History(ctx, 20)
	if err != nil {
		errorColor.Fprintf(s.out, "Error: %s\n", err.Error())
		return
	}

	if len(records) == 0 {
		fmt.Fprintln(s.out, "No completed stays")
		return
	}

	fmt.Fprintln(s.out, "Plate\tCategory\tEntry\tExit\tAmount")
	for _, rec := range records {
		fmt.Fprintf(s.out, "%s\t%s\t%s\t%s\t%d\n",
			rec.Vehicle.Plate(), rec.Vehicle.Category(),
			rec.EntryTime.Format(time.RFC3339), rec.ExitTime.Format(time.RFC3339),
			*rec.AmountCharged)
	}
}

func (s *InstrumentedShell) printLookupError(err error) {
	if errors.Is(err, ErrNotFound) {
		warnColor.Fprintln(s.out, "Not found")
		return
	}
	errorColor.Fprintf(s.out, "Error: %s\n", err.Error())
}
