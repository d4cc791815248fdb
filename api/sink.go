package api

import (
	"ddb-capacity-reporter/types"
)

// broadcastSink forwards driver events to every connected websocket client.
type broadcastSink struct {
	server *Server
}

func (s *broadcastSink) Inventory(region string, tables []types.TableIdentifier) {
	s.server.publish(types.Broadcast{MessageType: "inventory", Data: map[string]interface{}{
		"region": region,
		"tables": tables,
	}})
}

func (s *broadcastSink) Provisioned(subject types.Subject, capacity types.ProvisionedCapacity) {
	s.server.publish(types.Broadcast{MessageType: "provisioned", Data: map[string]interface{}{
		"subject":     subject,
		"provisioned": capacity,
	}})
}

func (s *broadcastSink) Report(report types.UtilizationReport) {
	s.server.publish(types.Broadcast{MessageType: "report", Data: report})
}

func (s *broadcastSink) NoIndexes(table types.TableIdentifier) {
	s.server.publish(types.Broadcast{MessageType: "no_indexes", Data: table})
}

func (s *broadcastSink) Failure(failure types.TableFailure) {
	s.server.publish(types.Broadcast{MessageType: "failure", Data: failure})
}
