package cmd

import (
	"context"
	"errors"
	"io"

	"github.com/heinergc/sqlconn/internal/audit"
	"github.com/heinergc/sqlconn/internal/configs"
	kerrors "github.com/heinergc/sqlconn/internal/errors"
	logger "github.com/heinergc/sqlconn/internal/logging"
	"github.com/heinergc/sqlconn/internal/probe"
	"github.com/heinergc/sqlconn/internal/profiles"
	"github.com/heinergc/sqlconn/internal/secrets"
	"github.com/heinergc/sqlconn/internal/ui"
	"github.com/heinergc/sqlconn/internal/workflows"
)

// newBox derives the cipher. Tests replace it with a fixed-phrase box.
var newBox = secrets.NewMachineBox

// session holds everything one invocation works with. There is exactly one
// store per process and every command receives it from here.
type session struct {
	settings configs.Settings
	paths    configs.Paths
	box      *secrets.Box
	store    *profiles.Store
	runner   *probe.Runner
	trail    audit.Trail

	logFile io.Closer
}

// openSession resolves settings, derives the machine key, loads the
// connection file and migrates any plaintext passwords left in it.
func openSession(ctx context.Context) (*session, error) {
	home, err := configs.ResolveHome()
	if err != nil {
		return nil, Logger.ErrorfAndReturn("Failed to resolve the data directory: %v", err)
	}

	settings, err := configs.LoadSettings(home)
	if err != nil {
		Logger.Warnf("%v, using defaults", err)
	}

	s := &session{
		settings: settings,
		paths:    settings.Paths(home),
	}
	s.trail = audit.Trail{Path: s.paths.AuditFile}

	if s.paths.LogFile != "" {
		sink := logger.NewFileSink(s.paths.LogFile, settings.Logging.MaxSizeMB, settings.Logging.MaxBackups)
		Logger.File = sink
		s.logFile = sink
	}
	Logger.Debugf("Data directory: %s", s.paths.DataDir)

	box, err := newBox()
	if err != nil {
		s.close()
		return nil, Logger.ErrorfAndReturn("Failed to derive the encryption key for this machine: %v", err)
	}
	s.box = box

	s.store = profiles.NewStore(s.paths.ConnectionsFile, box, Logger)
	if err := s.store.Load(); err != nil {
		if !errors.Is(err, kerrors.ErrStoreCorrupt) {
			s.close()
			return nil, err
		}
		Logger.Errorf("%v", err)
		Logger.Warnf("Continuing with an empty profile list, saving will overwrite %s", s.paths.ConnectionsFile)
	}

	changed, err := workflows.Migrate(ctx, s.store, s.trail)
	if err != nil {
		Logger.Warnf("Could not save encrypted passwords: %v", err)
	} else if changed > 0 {
		Logger.Infof("Encrypted %d plaintext passwords", changed)
	}

	opts := append([]probe.Option{probe.WithLogger(Logger)}, probeOptions...)
	s.runner = probe.NewRunner(box, opts...)

	return s, nil
}

func (s *session) close() {
	if s.logFile != nil {
		_ = s.logFile.Close()
		s.logFile = nil
		Logger.File = nil
	}
}

// newProfile returns an empty profile carrying the configured defaults.
func (s *session) newProfile() profiles.Profile {
	d := s.settings.Defaults
	return profiles.Profile{
		Provider:               profiles.Provider(d.Provider),
		ConnectionTimeout:      d.ConnectionTimeout,
		CommandTimeout:         d.CommandTimeout,
		TrustServerCertificate: d.TrustServerCertificate,
	}
}

func (s *session) noProfilesMessage() string {
	return ui.Info.Sprint("ℹ") + " No connection profiles stored yet\n" +
		ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("sqlconn add") + " to create one"
}
