// Package rkd is the core of the Reuters Knowledge Direct client.
//
// It builds WS-Addressing SOAP request descriptors (Builder), acquires and
// caches the service token (Session), and issues authenticated calls on top
// of both (Client). Sending bytes over the wire is left to a Transport; see
// package soap for the HTTP implementation.
//
//	builder := rkd.NewBuilder(cfg.Endpoints())
//	session, err := rkd.NewSession(ctx, cfg.RKDCredentials(), builder, soap.NewTransport(nil))
//	if err != nil {
//		return err
//	}
//	tok, err := session.Valid(ctx)
package rkd
