package nats

import (
	"github.com/nats-io/nats.go/micro"

	"github.com/flarexio/linesim"
)

func AddEndpoints(group micro.Group, endpoints linesim.EndpointSet) {
	group.AddEndpoint("ingest", IngestHandler(endpoints.Ingest))
	group.AddEndpoint("rebuild", IngestHandler(endpoints.Rebuild))
	group.AddEndpoint("compare", CompareHandler(endpoints.Compare))
}
