/*
 *  Copyright 2024 qitoi
 *
 *  Licensed under the Apache License, Version 2.0 (the "License");
 *  you may not use this file except in compliance with the License.
 *  You may obtain a copy of the License at
 *
 *      http://www.apache.org/licenses/LICENSE-2.0
 *
 *  Unless required by applicable law or agreed to in writing, software
 *  distributed under the License is distributed on an "AS IS" BASIS,
 *  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *  See the License for the specific language governing permissions and
 *  limitations under the License.
 */

// Package porterload runs HTTP load scenarios either as a Locust worker or standalone.
package porterload

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/porterlab/porterload/internal/protocol"
)

type WorkerState = int64

const (
	WorkerStateInit WorkerState = iota
	WorkerStateSpawning
	WorkerStateRunning
	WorkerStateCleanup
	WorkerStateStopped
)

var (
	ErrConnection = errors.New("failed to connect to master")
)

const (
	defaultHeartbeatInterval      = 1 * time.Second
	defaultMetricsMonitorInterval = 5 * time.Second
	defaultMasterHeartbeatTimeout = 60 * time.Second
	defaultStatsReportInterval    = 3 * time.Second

	connectTimeout    = 5 * time.Second
	connectRetryCount = 60
)

var (
	workerStateNames = map[WorkerState]string{
		WorkerStateInit:     "ready",
		WorkerStateSpawning: "spawning",
		WorkerStateRunning:  "running",
		WorkerStateCleanup:  "cleanup",
		WorkerStateStopped:  "stopped",
	}
)

var (
	_ Runner = (*Worker)(nil)
)

// MessageHandler handles a custom message sent by the master.
type MessageHandler func(msg protocol.ReceivedMessage)

// Worker provides the functionality of a Locust worker.
type Worker struct {
	version  string
	clientID string

	// heartbeatInterval is the interval at which the worker sends a heartbeat message to the master.
	heartbeatInterval time.Duration

	// masterHeartbeatTimeout is the timeout for the heartbeat from the master.
	masterHeartbeatTimeout time.Duration

	// metricsMonitorInterval is the interval at which the worker samples the process metrics.
	metricsMonitorInterval time.Duration

	// statsReportInterval is the interval at which the worker sends statistics to the master.
	statsReportInterval time.Duration

	logger        *slog.Logger
	loadGenerator *LoadGenerator
	index         atomic.Int64
	state         atomic.Int64
	transport     Transport
	spawnCh       chan map[string]int64
	ackCh         chan struct{}
	heartbeatCh   chan struct{}
	procInfo      *processInfo

	host          atomic.Value
	defaultHost   string
	parsedOptions atomic.Pointer[ParsedOptions]

	messageHandlers  map[string][]MessageHandler
	connectHandlers  handlers
	quittingHandlers handlers
	quitHandlers     handlers

	// cancel is the context cancel function of the join process.
	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewWorker creates an instance of Worker.
func NewWorker(transport Transport, options ...WorkerOption) (*Worker, error) {
	id, err := generateClientID()
	if err != nil {
		return nil, err
	}
	procInfo, err := newProcessInfo(os.Getpid())
	if err != nil {
		return nil, err
	}

	w := &Worker{
		version:                fmt.Sprintf("%s.porterload-%s", LocustVersion, Version),
		clientID:               id,
		heartbeatInterval:      defaultHeartbeatInterval,
		metricsMonitorInterval: defaultMetricsMonitorInterval,
		masterHeartbeatTimeout: defaultMasterHeartbeatTimeout,
		statsReportInterval:    defaultStatsReportInterval,

		logger:        slog.Default(),
		loadGenerator: NewLoadGenerator(),
		transport:     transport,
		spawnCh:       make(chan map[string]int64),
		ackCh:         make(chan struct{}, 1),
		heartbeatCh:   make(chan struct{}, 1),
		procInfo:      procInfo,

		messageHandlers: map[string][]MessageHandler{},
	}
	w.index.Store(-1)
	w.host.Store("")

	for _, option := range options {
		option(w)
	}

	return w, nil
}

// Version returns the version sent to the master in client_ready.
func (w *Worker) Version() string {
	return w.version
}

// ClientID returns the unique identifier of the worker.
func (w *Worker) ClientID() string {
	return w.clientID
}

// Join connects to the master and serves it until the worker quits.
func (w *Worker) Join() error {
	var wg sync.WaitGroup

	// a Quit before the connection is established cancels the dial
	ctx, cancel := context.WithCancel(context.Background())
	w.setCancel(cancel)
	if err := w.open(ctx); err != nil {
		return err
	}

	// once connected, Quit only stops the processes so the quit message can still be sent
	ctx, cancel = context.WithCancel(context.Background())
	w.setCancel(cancel)

	w.startMessageProcess(ctx, &wg)

	if err := w.connect(ctx); err != nil {
		_ = w.close()
		wg.Wait()
		return err
	}
	w.logger.Info("Connected to master.", "clientID", w.clientID, "index", w.Index())

	var procWg sync.WaitGroup

	w.startHeartbeatProcess(ctx, &procWg, w.heartbeatInterval)
	w.startHeartbeatCheckProcess(ctx, &procWg, w.masterHeartbeatTimeout)
	w.startMetricsMonitorProcess(ctx, &procWg, w.metricsMonitorInterval)
	w.startStatsProcess(ctx, &procWg, w.statsReportInterval)
	w.startSpawnProcess(ctx, &procWg)

	procWg.Wait()

	if err := w.SendMessage(protocol.MessageQuit, nil); err != nil {
		_ = w.close()
		wg.Wait()
		return err
	}
	if err := w.close(); err != nil {
		return err
	}

	wg.Wait()

	w.quitHandlers.Call()
	w.logger.Info("Worker quit.", "clientID", w.clientID)

	return nil
}

// Stop stops the load test.
func (w *Worker) Stop() {
	if s := w.state.Load(); s == WorkerStateCleanup || s == WorkerStateStopped {
		return
	}
	w.state.Store(WorkerStateCleanup)
	w.loadGenerator.Stop()
	w.state.Store(WorkerStateStopped)
}

// Quit stops the load test and makes Join return.
func (w *Worker) Quit() {
	w.mu.Lock()
	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()
	if cancel == nil {
		return
	}

	w.quittingHandlers.Call()
	w.Stop()
	cancel()
}

// RegisterUser registers a user class under the name the master spawns it by.
func (w *Worker) RegisterUser(name string, f func() User) {
	w.loadGenerator.RegisterUser(w, name, f)
}

// OnConnect registers function to be called when the worker connects to the master.
func (w *Worker) OnConnect(f func()) {
	w.connectHandlers.Add(f)
}

// OnQuitting registers function to be called when the worker starts quitting.
func (w *Worker) OnQuitting(f func()) {
	w.quittingHandlers.Add(f)
}

// OnQuit registers function to be called when the worker quits.
func (w *Worker) OnQuit(f func()) {
	w.quitHandlers.Add(f)
}

// OnTestStart registers function to be called when the test starts.
func (w *Worker) OnTestStart(f func(ctx context.Context) error) {
	w.loadGenerator.OnTestStart(f)
}

// OnTestStop registers function to be called when the test stops.
func (w *Worker) OnTestStop(f func(ctx context.Context)) {
	w.loadGenerator.OnTestStop(f)
}

// Index returns the index the master assigned to the worker.
func (w *Worker) Index() int64 {
	return w.index.Load()
}

func (w *Worker) State() WorkerState {
	return w.state.Load()
}

// Host returns the host sent by the master, or the default host when the master sent none.
func (w *Worker) Host() string {
	if h := w.host.Load().(string); h != "" {
		return h
	}
	return w.defaultHost
}

func (w *Worker) Tags() (tags, excludeTags *[]string) {
	if p := w.parsedOptions.Load(); p != nil {
		return p.Tags, p.ExcludeTags
	}
	return nil, nil
}

func (w *Worker) Options(v interface{}) error {
	if p := w.parsedOptions.Load(); p != nil {
		return p.Extract(v)
	}
	return nil
}

func (w *Worker) ReportException(err error) {
	w.logger.Error("User raised an exception.", "error", err)
	_ = w.SendMessage(protocol.MessageException, protocol.ExceptionPayload{
		Msg:       err.Error(),
		Traceback: Traceback(err),
	})
}

// RegisterMessage registers custom message handler.
func (w *Worker) RegisterMessage(typ string, handler MessageHandler) {
	w.messageHandlers[typ] = append(w.messageHandlers[typ], handler)
}

// SendMessage sends message to the master.
func (w *Worker) SendMessage(typ string, data any) error {
	b, err := protocol.Encode(protocol.Message{
		Type:   typ,
		Data:   data,
		NodeID: w.clientID,
	})
	if err != nil {
		return err
	}
	return w.transport.Send(b)
}

func (w *Worker) setCancel(cancel context.CancelFunc) {
	w.mu.Lock()
	w.cancel = cancel
	w.mu.Unlock()
}

func (w *Worker) open(ctx context.Context) error {
	return w.transport.Open(ctx, w.clientID)
}

func (w *Worker) close() error {
	return w.transport.Close()
}

func (w *Worker) connect(ctx context.Context) error {
	retry := 0
	ticker := time.NewTicker(connectTimeout)
	defer ticker.Stop()

clear:
	for {
		select {
		case <-w.ackCh:
		default:
			break clear
		}
	}

	if err := w.SendMessage(protocol.MessageClientReady, w.version); err != nil {
		return err
	}

loop:
	for {
		select {
		case <-ticker.C:
			retry += 1
			if retry > connectRetryCount {
				return ErrConnection
			}
			w.logger.Warn("Waiting for master.", "retry", retry)

		case <-w.ackCh:
			break loop

		case <-ctx.Done():
			return ctx.Err()
		}
	}

	w.connectHandlers.Call()

	return nil
}

func (w *Worker) recv() (protocol.ReceivedMessage, error) {
	b, err := w.transport.Receive()
	if err != nil {
		return protocol.ReceivedMessage{}, err
	}
	return protocol.Decode(b)
}

// startMessageProcess receives and dispatches messages from the master until the transport closes.
func (w *Worker) startMessageProcess(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)

	go func() {
		defer wg.Done()

		var lastReceivedSpawnTimestamp float64

		for {
			msg, err := w.recv()
			if err != nil {
				w.Quit()
				return
			}

			switch msg.Type {
			case protocol.MessageAck:
				var payload protocol.AckPayload
				if err := msg.DecodePayload(&payload); err != nil {
					w.logger.Error("Invalid ack message.", "error", err)
					continue
				}
				w.index.Store(payload.Index)

				select {
				case w.ackCh <- struct{}{}:
				default:
				}

			case protocol.MessageSpawn:
				var payload protocol.SpawnPayload
				if err := msg.DecodePayload(&payload); err != nil {
					w.logger.Error("Invalid spawn message.", "error", err)
					continue
				}

				// the master may resend a spawn it has already sent
				if payload.Timestamp <= lastReceivedSpawnTimestamp {
					continue
				}
				lastReceivedSpawnTimestamp = payload.Timestamp

				options, err := parseOptions(payload.ParsedOptions)
				if err != nil {
					w.logger.Error("Invalid parsed options.", "error", err)
					continue
				}
				w.host.Store(payload.Host)
				w.parsedOptions.Store(options)

				select {
				case w.spawnCh <- payload.UserClassesCount:
				case <-ctx.Done():
				}

			case protocol.MessageStop:
				w.logger.Info("Stopping the load test.")
				w.loadGenerator.Stop()
				_ = w.sendStats()
				w.host.Store("")
				w.parsedOptions.Store(nil)
				_ = w.SendMessage(protocol.MessageClientStopped, nil)
				w.state.Store(WorkerStateInit)
				_ = w.SendMessage(protocol.MessageClientReady, w.version)

			case protocol.MessageReconnect:
				w.logger.Warn("Reconnecting to master.")
				_ = w.close()
				if err := w.open(context.Background()); err != nil {
					w.logger.Error("Failed to reconnect.", "error", err)
					w.Quit()
					return
				}
				_ = w.SendMessage(protocol.MessageClientReady, w.version)

			case protocol.MessageHeartbeat:
				select {
				case w.heartbeatCh <- struct{}{}:
				default:
				}

			case protocol.MessageQuit:
				w.logger.Info("Master asked to quit.")
				w.Stop()
				_ = w.sendStats()
				w.Quit()

			default:
				handlers, ok := w.messageHandlers[msg.Type]
				if !ok {
					w.logger.Debug("Unhandled message.", "type", msg.Type)
				}
				for _, handler := range handlers {
					handler(msg)
				}
			}
		}
	}()
}

func (w *Worker) startSpawnProcess(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(2)

	relayCh := make(chan map[string]int64)

	// relay so a slow spawn never blocks the receive loop; only the latest request is kept
	go func() {
		defer wg.Done()

		var ch chan map[string]int64
		var spawnCount map[string]int64

		for {
			select {
			case spawnCount = <-w.spawnCh:
				ch = relayCh

			case ch <- spawnCount:
				spawnCount = nil
				ch = nil

			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		defer wg.Done()

		for {
			select {
			case spawnCount := <-relayCh:
				if state := w.state.Load(); state != WorkerStateRunning && state != WorkerStateSpawning {
					if err := w.loadGenerator.Start(); err != nil {
						w.logger.Error("Test start handler failed.", "error", err)
						continue
					}
				}

				w.state.Store(WorkerStateSpawning)
				_ = w.SendMessage(protocol.MessageSpawning, nil)

				payload := &protocol.SpawningCompletePayload{
					UserClassesCount: make(map[string]int64),
				}
				for name, count := range spawnCount {
					if err := w.loadGenerator.Spawn(name, int(count)); err != nil {
						w.logger.Warn("Skipped user class.", "error", err)
						continue
					}
					payload.UserCount += count
					payload.UserClassesCount[name] = count
				}
				w.logger.Info("Spawning complete.", "users", payload.UserCount)

				_ = w.SendMessage(protocol.MessageSpawningComplete, payload)

				w.state.Store(WorkerStateRunning)

			case <-ctx.Done():
				return
			}
		}
	}()
}

func (w *Worker) startHeartbeatProcess(ctx context.Context, wg *sync.WaitGroup, interval time.Duration) {
	if interval <= 0 {
		return
	}

	wg.Add(1)
	go func() {
		defer wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				_ = w.SendMessage(protocol.MessageHeartbeat, protocol.HeartbeatPayload{
					State:              workerStateNames[w.state.Load()],
					CurrentCPUUsage:    w.procInfo.CPUUsage(),
					CurrentMemoryUsage: w.procInfo.MemoryUsage(),
				})

			case <-ctx.Done():
				return
			}
		}
	}()
}

func (w *Worker) startHeartbeatCheckProcess(ctx context.Context, wg *sync.WaitGroup, timeout time.Duration) {
	if timeout <= 0 {
		return
	}

	wg.Add(1)
	go func() {
		defer wg.Done()

		timer := time.NewTimer(timeout)
		defer timer.Stop()

		for {
			select {
			case <-w.heartbeatCh:
				if !timer.Stop() {
					<-timer.C
				}
				timer.Reset(timeout)

			case <-timer.C:
				w.logger.Error("Lost heartbeat from master.", "timeout", timeout)
				w.Quit()
				return

			case <-ctx.Done():
				return
			}
		}
	}()
}

func (w *Worker) startStatsProcess(ctx context.Context, wg *sync.WaitGroup, interval time.Duration) {
	if interval <= 0 {
		return
	}

	wg.Add(1)
	go func() {
		defer wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := w.sendStats(); err != nil {
					w.logger.Warn("Failed to send stats.", "error", err)
				}

			case <-ctx.Done():
				return
			}
		}
	}()
}

func (w *Worker) sendStats() error {
	entries, total, errs := w.loadGenerator.FlushStats()
	payload := protocol.NewStatsPayload(entries, total, errs, w.loadGenerator.Users())
	return w.SendMessage(protocol.MessageStats, payload)
}

func (w *Worker) startMetricsMonitorProcess(ctx context.Context, wg *sync.WaitGroup, interval time.Duration) {
	if interval <= 0 {
		return
	}

	_ = w.procInfo.Update()

	wg.Add(1)
	go func() {
		defer wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := w.procInfo.Update(); err != nil {
					w.logger.Debug("Failed to sample process metrics.", "error", err)
				}

			case <-ctx.Done():
				return
			}
		}
	}()
}

type handlers []func()

func (h *handlers) Add(f func()) {
	*h = append(*h, f)
}

func (h handlers) Call() {
	for _, f := range h {
		f()
	}
}

// generateClientID returns the Locust style client id: hostname_<uuid hex>.
func generateClientID() (string, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return "", err
	}
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return hostname + "_" + hex.EncodeToString(id[:]), nil
}
