package main

import (
	"telemetry-viewer/src/interfaces"
	"telemetry-viewer/src/logger"
	"telemetry-viewer/src/models"
	"telemetry-viewer/src/network"
	"telemetry-viewer/src/presign"
	"telemetry-viewer/src/storage"
	"telemetry-viewer/src/transport"
)

// -----------------------------------------------------------------------------

// setupJournal opens the transition journal selected by storage.db_type
func setupJournal(config *models.MConfig, appLogger *logger.Logger) (interfaces.IJournal, error) {
	journalLogger := logger.NewLogger(config, "Journal")

	journal, err := storage.NewJournal(config, journalLogger)
	if err != nil {
		appLogger.Critical("Failed to init journal: %v", err)
		return nil, err
	}
	if err := journal.Initialize(); err != nil {
		appLogger.Critical("Failed to migrate journal: %v", err)
		return nil, err
	}
	return journal, nil
}

// -----------------------------------------------------------------------------

// setupAuthority picks the local signer or the remote presign endpoint
func setupAuthority(config *models.MConfig) interfaces.IPresignAuthority {
	networkLogger := logger.NewLogger(config, "NetworkManager")
	networkManager := network.NewNetworkManager(config, networkLogger)

	presignLogger := logger.NewLogger(config, "Presign")
	return presign.NewAuthority(config, networkManager, presignLogger)
}

// -----------------------------------------------------------------------------

// setupTransport initializes the MQTT-over-websocket dialer
func setupTransport(config *models.MConfig) interfaces.ITransportDialer {
	transportLogger := logger.NewLogger(config, "Transport")
	return transport.NewMQTTDialer(config, transportLogger)
}
