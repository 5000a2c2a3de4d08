/*
 * Copyright 2024 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package bolterr defines the error kinds surfaced by the Bolt core and
// a single Error type carrying one of them plus a message and an
// optional wrapped cause.
package bolterr

import "fmt"

// Kind is a discriminant identifying why an operation against the Bolt
// core failed. It is always carried inside an *Error so callers can
// branch on it with errors.As.
type Kind int32

const (
	UnexpectedError Kind = iota
	InvalidURI
	UnknownURIScheme
	UnknownHost

	ProtocolNegotiationFailed
	InvalidCredentials

	ConnectionClosed
	SessionFailed
	SessionEnded
	SessionReset
	SessionBusy

	UnclosedResultStream
	StatementEvaluationFailed
	StatementPreviousFailure

	TLSNotSupported
	TLSVerificationFailed
	NoServerTLSSupport
	ServerRequiresSecureConnection
	TLSMalformedCertificate

	InvalidMapKeyType
	InvalidLabelType

	InvalidPathNodeType
	InvalidPathRelationshipType
	InvalidPathSequenceLength
	InvalidPathSequenceIdxType
	InvalidPathSequenceIdxRange

	NoPlanAvailable
	AuthRateLimit

	TransactionFailed
	TransactionDefunct
	FeatureUnavailable

	ProtocolError
)

var kindStrings = [...]string{
	UnexpectedError:                "unexpected error",
	InvalidURI:                     "invalid URI",
	UnknownURIScheme:               "unknown URI scheme",
	UnknownHost:                    "unknown host",
	ProtocolNegotiationFailed:      "protocol version negotiation failed",
	InvalidCredentials:             "invalid credentials",
	ConnectionClosed:               "connection closed",
	SessionFailed:                  "session failed",
	SessionEnded:                   "session ended",
	SessionReset:                   "session reset",
	SessionBusy:                    "session busy",
	UnclosedResultStream:           "unclosed result stream",
	StatementEvaluationFailed:      "statement evaluation failed",
	StatementPreviousFailure:       "statement not executed owing to previous failure",
	TLSNotSupported:                "TLS not supported",
	TLSVerificationFailed:          "TLS verification failed",
	NoServerTLSSupport:             "server does not support TLS",
	ServerRequiresSecureConnection: "server requires a secure connection",
	TLSMalformedCertificate:        "malformed TLS certificate",
	InvalidMapKeyType:              "map key must be a string",
	InvalidLabelType:               "node label must be a string",
	InvalidPathNodeType:            "path node list contains a non-node value",
	InvalidPathRelationshipType:    "path relationship list contains a non-relationship value",
	InvalidPathSequenceLength:      "path sequence length must be even",
	InvalidPathSequenceIdxType:     "path sequence index is not an integer",
	InvalidPathSequenceIdxRange:    "path sequence index out of range",
	NoPlanAvailable:                "no plan available",
	AuthRateLimit:                  "authentication rate limit exceeded",
	TransactionFailed:              "transaction failed",
	TransactionDefunct:             "transaction is no longer usable",
	FeatureUnavailable:             "feature not available on the negotiated protocol version",
	ProtocolError:                  "malformed Bolt protocol data",
}

// Strerror returns a human readable description of k.
func Strerror(k Kind) string {
	if int(k) >= 0 && int(k) < len(kindStrings) && kindStrings[k] != "" {
		return kindStrings[k]
	}
	return fmt.Sprintf("unknown error kind (%d)", k)
}

func (k Kind) String() string { return Strerror(k) }

// Error is the error type returned by every exported operation in this
// module. It always carries a Kind; Msg and Err are optional detail.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

// New creates an *Error of the given kind with a formatted message.
func New(k Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: k, Msg: fmt.Sprintf(format, args...)}
}

// Wrap creates an *Error of the given kind wrapping a lower-level cause.
func Wrap(k Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: k, Msg: fmt.Sprintf(format, args...), Err: err}
}

func (e *Error) Error() string {
	if e.Msg != "" {
		if e.Err != nil {
			return fmt.Sprintf("%s: %s: %s", Strerror(e.Kind), e.Msg, e.Err.Error())
		}
		return fmt.Sprintf("%s: %s", Strerror(e.Kind), e.Msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", Strerror(e.Kind), e.Err.Error())
	}
	return Strerror(e.Kind)
}

// Unwrap supports errors.Is/errors.As against the wrapped cause.
func (e *Error) Unwrap() error { return e.Err }

// Is reports whether err is a *Error of the same Kind.
func (e *Error) Is(err error) bool {
	t, ok := err.(*Error)
	return ok && t.Kind == e.Kind
}

// ProtocolErrorf is the constructor used by packstream/message decode
// paths; the *Error it returns is always of Kind ProtocolError.
func ProtocolErrorf(format string, args ...interface{}) *Error {
	return New(ProtocolError, format, args...)
}

// Neo4jError carries a server-reported FAILURE: the `code`/`message`
// fields of the argv map described in spec §7.
type Neo4jError struct {
	Code    string
	Message string
}

func (e *Neo4jError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsTransactionTimeout reports whether the server classified this
// failure as Neo.ClientError.Transaction.TransactionTimedOut.
func (e *Neo4jError) IsTransactionTimeout() bool {
	return e != nil && e.Code == "Neo.ClientError.Transaction.TransactionTimedOut"
}
