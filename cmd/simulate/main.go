package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/caarlos0/env/v6"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/hackgods/telehealth-coordination/internal/access"
	"github.com/hackgods/telehealth-coordination/internal/api"
	"github.com/hackgods/telehealth-coordination/internal/appointment"
	"github.com/hackgods/telehealth-coordination/internal/config"
	"github.com/hackgods/telehealth-coordination/internal/db"
	"github.com/hackgods/telehealth-coordination/internal/logging"
)

type SimConfig struct {
	APIBaseURL    string        `env:"SIM_API_BASE_URL" envDefault:"http://localhost:8080"`
	Duration      time.Duration `env:"SIM_DURATION" envDefault:"30s"`
	Workers       int           `env:"SIM_WORKERS" envDefault:"10"`
	BookingRatio  float64       `env:"SIM_BOOKING_RATIO" envDefault:"0.5"`
	DecisionRatio float64       `env:"SIM_DECISION_RATIO" envDefault:"0.2"`
	ReadRatio     float64       `env:"SIM_READ_RATIO" envDefault:"0.3"`
	DoctorLimit   int           `env:"SIM_DOCTOR_LIMIT" envDefault:"200"`
	Patients      int           `env:"SIM_PATIENTS" envDefault:"500"`
	TokenTTL      time.Duration `env:"SIM_TOKEN_TTL" envDefault:"1h"`

	PostgresDSN string
	JWTSecret   string
}

type simDoctor struct {
	ID    string
	Token string
}

type simPatient struct {
	ID    string
	Name  string
	Email string
	Token string
}

type bookedAppointment struct {
	ID      string
	Doctor  int
	Patient int
}

type DataPool struct {
	Doctors      []simDoctor
	Patients     []simPatient
	mu           sync.RWMutex
	appointments []bookedAppointment
}

func (dp *DataPool) AddAppointment(a bookedAppointment) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.appointments = append(dp.appointments, a)
}

func (dp *DataPool) RandomAppointment(rng *rand.Rand) (bookedAppointment, bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	if len(dp.appointments) == 0 {
		return bookedAppointment{}, false
	}
	return dp.appointments[rng.Intn(len(dp.appointments))], true
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, success bool, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	switch {
	case success:
		atomic.AddInt64(&om.Success, 1)
	case conflict:
		atomic.AddInt64(&om.Conflict, 1)
	default:
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)
	om.mu.Unlock()

	if len(latencies) == 0 {
		return 0, 0, 0, 0, 0
	}

	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	percentile := func(p int) time.Duration {
		idx := len(latencies) * p / 100
		if idx >= len(latencies) {
			idx = len(latencies) - 1
		}
		return latencies[idx]
	}

	return sum / time.Duration(len(latencies)), latencies[0], latencies[len(latencies)-1], percentile(50), percentile(95)
}

type Metrics struct {
	Booking         OperationMetrics
	Decision        OperationMetrics
	ReadByID        OperationMetrics
	ListByPatient   OperationMetrics
	ListByDoctor    OperationMetrics
	DirectorySearch OperationMetrics
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	client  *http.Client
	metrics Metrics
	logger  zerolog.Logger
}

func main() {
	logger := logging.New(true, "info").With().Str("cmd", "simulate").Logger()
	logger.Info().Msg("simulator starting")

	cfg, err := loadConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	logger.Info().
		Dur("duration", cfg.Duration).
		Int("workers", cfg.Workers).
		Float64("booking", cfg.BookingRatio).
		Float64("decision", cfg.DecisionRatio).
		Float64("read", cfg.ReadRatio).
		Msg("config")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgPool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect postgres")
	}
	defer pgPool.Close()

	dataPool, err := loadDataPool(ctx, pgPool, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("load data pool")
	}

	logger.Info().Int("doctors", len(dataPool.Doctors)).Int("patients", len(dataPool.Patients)).Msg("loaded")

	sim := &Simulator{
		config: cfg,
		pool:   dataPool,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}

	sim.Run()
	sim.PrintReport()
}

func loadConfig() (SimConfig, error) {
	baseCfg, err := config.Load()
	if err != nil {
		return SimConfig{}, fmt.Errorf("load base config: %w", err)
	}

	var cfg SimConfig
	if err := env.Parse(&cfg); err != nil {
		return SimConfig{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.PostgresDSN = baseCfg.PostgresDSN
	cfg.JWTSecret = baseCfg.JWTSecret

	if cfg.Workers <= 0 {
		return SimConfig{}, fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return SimConfig{}, fmt.Errorf("SIM_DURATION must be > 0")
	}
	if cfg.Patients <= 0 {
		return SimConfig{}, fmt.Errorf("SIM_PATIENTS must be > 0")
	}

	// Normalize ratios
	total := cfg.BookingRatio + cfg.DecisionRatio + cfg.ReadRatio
	if total > 0 {
		cfg.BookingRatio /= total
		cfg.DecisionRatio /= total
		cfg.ReadRatio /= total
	}

	return cfg, nil
}

// loadDataPool signs a doctor token for every registered, active doctor and
// invents the patient population, which has no table of its own.
func loadDataPool(ctx context.Context, pool *pgxpool.Pool, cfg SimConfig) (*DataPool, error) {
	dataPool := &DataPool{}

	rows, err := pool.Query(ctx, `
		SELECT id, external_id FROM doctors
		WHERE status = 'active' AND external_id IS NOT NULL
		LIMIT $1
	`, cfg.DoctorLimit)
	if err != nil {
		return nil, fmt.Errorf("load doctors: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, externalID string
		if err := rows.Scan(&id, &externalID); err != nil {
			return nil, err
		}
		token, err := access.SignToken(cfg.JWTSecret, externalID, access.RoleDoctor, cfg.TokenTTL)
		if err != nil {
			return nil, fmt.Errorf("sign doctor token: %w", err)
		}
		dataPool.Doctors = append(dataPool.Doctors, simDoctor{ID: id, Token: token})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(dataPool.Doctors) == 0 {
		return nil, fmt.Errorf("no registered doctors loaded, run the seed first")
	}

	for i := 0; i < cfg.Patients; i++ {
		userID := "sim_" + uuid.NewString()
		token, err := access.SignToken(cfg.JWTSecret, userID, access.RolePatient, cfg.TokenTTL)
		if err != nil {
			return nil, fmt.Errorf("sign patient token: %w", err)
		}
		dataPool.Patients = append(dataPool.Patients, simPatient{
			ID:    userID,
			Name:  gofakeit.Name(),
			Email: strings.ToLower(gofakeit.Email()),
			Token: token,
		})
	}

	return dataPool, nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	s.logger.Info().Dur("duration", s.config.Duration).Int("workers", s.config.Workers).Msg("starting simulation")

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	s.logger.Info().Msg("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
			r := rng.Float64()
			switch {
			case r < s.config.BookingRatio:
				s.doBooking(ctx, rng)
			case r < s.config.BookingRatio+s.config.DecisionRatio:
				s.doDecision(ctx, rng)
			default:
				switch rng.Intn(4) {
				case 0:
					s.doReadByID(ctx, rng)
				case 1:
					s.doListByPatient(ctx, rng)
				case 2:
					s.doListByDoctor(ctx, rng)
				case 3:
					s.doDirectorySearch(ctx, rng)
				}
			}
		}
	}
}

// call performs one authenticated request and reports the status code.
func (s *Simulator) call(ctx context.Context, method, path, token string, body any, out any) (int, error) {
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.config.APIBaseURL+path, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		_ = json.NewDecoder(resp.Body).Decode(out)
	}
	return resp.StatusCode, nil
}

func (s *Simulator) doBooking(ctx context.Context, rng *rand.Rand) {
	di := rng.Intn(len(s.pool.Doctors))
	pi := rng.Intn(len(s.pool.Patients))
	p := s.pool.Patients[pi]

	day := time.Now().AddDate(0, 0, 1+rng.Intn(30))
	in := appointment.BookingInput{
		PatientName:     p.Name,
		PatientEmail:    p.Email,
		DoctorID:        s.pool.Doctors[di].ID,
		AppointmentDate: day.Format("2006-01-02"),
		AppointmentTime: fmt.Sprintf("%02d:%02d", 8+rng.Intn(10), 15*rng.Intn(4)),
		Reason:          "Simulated consultation",
	}

	start := time.Now()
	var out api.BookResponse
	status, err := s.call(ctx, http.MethodPost, "/appointments", p.Token, in, &out)
	latency := time.Since(start)

	success := err == nil && status == http.StatusCreated
	if success && out.AppointmentID != "" {
		s.pool.AddAppointment(bookedAppointment{ID: out.AppointmentID, Doctor: di, Patient: pi})
	}
	s.metrics.Booking.Record(latency, success, false)
}

// doDecision picks any booked appointment, so repeated and concurrent
// decisions on the same row show up as conflicts.
func (s *Simulator) doDecision(ctx context.Context, rng *rand.Rand) {
	a, ok := s.pool.RandomAppointment(rng)
	if !ok {
		return
	}

	decision := appointment.DecisionApprove
	if rng.Intn(4) == 0 {
		decision = appointment.DecisionReject
	}

	start := time.Now()
	status, err := s.call(ctx, http.MethodPost,
		fmt.Sprintf("/doctor/appointments/%s/decision", a.ID),
		s.pool.Doctors[a.Doctor].Token,
		api.DecisionRequest{Decision: string(decision)}, nil)
	latency := time.Since(start)

	s.metrics.Decision.Record(latency, err == nil && status == http.StatusOK, err == nil && status == http.StatusConflict)
}

func (s *Simulator) doReadByID(ctx context.Context, rng *rand.Rand) {
	a, ok := s.pool.RandomAppointment(rng)
	if !ok {
		return
	}

	start := time.Now()
	status, err := s.call(ctx, http.MethodGet, "/appointments/"+a.ID, s.pool.Patients[a.Patient].Token, nil, nil)
	s.metrics.ReadByID.Record(time.Since(start), err == nil && status == http.StatusOK, false)
}

func (s *Simulator) doListByPatient(ctx context.Context, rng *rand.Rand) {
	p := s.pool.Patients[rng.Intn(len(s.pool.Patients))]

	start := time.Now()
	status, err := s.call(ctx, http.MethodGet, "/patient/appointments", p.Token, nil, nil)
	s.metrics.ListByPatient.Record(time.Since(start), err == nil && status == http.StatusOK, false)
}

func (s *Simulator) doListByDoctor(ctx context.Context, rng *rand.Rand) {
	d := s.pool.Doctors[rng.Intn(len(s.pool.Doctors))]

	start := time.Now()
	status, err := s.call(ctx, http.MethodGet, "/doctor/appointments", d.Token, nil, nil)
	s.metrics.ListByDoctor.Record(time.Since(start), err == nil && status == http.StatusOK, false)
}

func (s *Simulator) doDirectorySearch(ctx context.Context, rng *rand.Rand) {
	p := s.pool.Patients[rng.Intn(len(s.pool.Patients))]
	queries := []string{"?specialty=all", "?specialty=cardio", "?search=derm", ""}

	start := time.Now()
	status, err := s.call(ctx, http.MethodGet, "/doctors"+queries[rng.Intn(len(queries))], p.Token, nil, nil)
	s.metrics.DirectorySearch.Record(time.Since(start), err == nil && status == http.StatusOK, false)
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Println()

	printOperationReport("Booking", &s.metrics.Booking)
	printOperationReport("Decision", &s.metrics.Decision)
	printOperationReport("Read by ID", &s.metrics.ReadByID)
	printOperationReport("List by Patient", &s.metrics.ListByPatient)
	printOperationReport("List by Doctor", &s.metrics.ListByDoctor)
	printOperationReport("Directory Search", &s.metrics.DirectorySearch)
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	failed := atomic.LoadInt64(&om.Error)

	avg, min, max, p50, p95 := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if conflict > 0 {
		fmt.Printf("  Conflicts: %d (%.1f%%)\n", conflict, float64(conflict)/float64(total)*100)
	}
	if failed > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", failed, float64(failed)/float64(total)*100)
	}
	fmt.Printf("  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n",
		avg.Round(time.Millisecond), min.Round(time.Millisecond), max.Round(time.Millisecond),
		p50.Round(time.Millisecond), p95.Round(time.Millisecond))
	fmt.Println()
}
