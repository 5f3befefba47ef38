// Package reminder implements the gRPC transport for the reminder engine.
//
// The service is declared by hand over protobuf well-known types: requests
// and responses are structpb.Struct documents or emptypb.Empty, so no code
// generation step is needed. The package exposes the service descriptor, a
// client stub and a server that calls into a provided business interface.
package reminder
