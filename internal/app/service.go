package app

import (
	"os"

	"pyproject-buildrequires/internal/adapters"
	"pyproject-buildrequires/internal/ports"
)

type Service struct {
	Dir          string
	Interpreter  ports.InterpreterPort
	Installed    ports.InstalledVersionsPort
	Project      ports.ProjectPort
	Requirements ports.RequirementsFilePort
	Backend      ports.BuildBackendPort
	Metadata     ports.MetadataPort
	Wheels       ports.WheelPort
	Tox          ports.ToxPort
	Output       ports.OutputPort
}

// ServiceConfig selects the interpreter and project the service works on.
type ServiceConfig struct {
	Python string
	Dir    string
	// Fedora is the value of $FEDORA.
	Fedora string
}

func NewService(cfg ServiceConfig) Service {
	if cfg.Python == "" {
		cfg.Python = "python3"
	}
	if cfg.Dir == "" {
		cfg.Dir = "."
	}
	if cfg.Fedora == "" {
		cfg.Fedora = os.Getenv("FEDORA")
	}
	return Service{
		Dir:          cfg.Dir,
		Interpreter:  adapters.NewPythonInterpreterAdapter(cfg.Python, cfg.Dir),
		Installed:    adapters.NewInstalledRegistryAdapter(),
		Project:      adapters.NewPyprojectFileAdapter(),
		Requirements: adapters.NewRequirementsFileAdapter(),
		Backend:      adapters.NewPythonBackendAdapter(cfg.Python, cfg.Dir),
		Metadata:     adapters.NewMetadataFileAdapter(),
		Wheels:       adapters.NewWheelFileAdapter(),
		Tox:          adapters.NewToxAdapter(cfg.Python, cfg.Dir, cfg.Fedora),
		Output:       adapters.NewOutputFileAdapter(),
	}
}
