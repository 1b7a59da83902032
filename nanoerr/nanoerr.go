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

// Package nanoerr holds the core's own error taxonomy.
//
// Core operations return a success flag or result value and report
// each failure to SelfLog with one of these codes; nothing here ever
// wraps a third-party error type, since the core never calls out to I/O.
package nanoerr

import "fmt"

// Code enumerates the core's internal failure taxonomy. Negative
// values mirror the source system's convention of negative integer
// error codes; Code itself stays a small int so it remains comparable
// and zero-alloc to pass around.
type Code int

const (
	// OK is the zero value; never returned as a failure.
	OK Code = 0

	CorruptedDecorationInfo Code = -1 - iota
	FailedToLockPayloadBuffer
	UnableToRetrieveTimestampAndLevel
	UnableToRetrieveStackTrace
	UnableToRetrieveDecoratorsInfo
	UnableToRetrieveSimpleMessageBuffer
	UnableToRetrieveDisjointedMessageBuffer
	UnableToRetrieveValidPayloadsFromDisjointedMessageBuffer
	UnableToRetrieveMessageFromContextBuffer
	UnableToRetrieveContextArgument
	UnableToRetrieveContextDataFromLogMessageBuffer
	UnableToRetrieveValidContextArgumentIndex
	UnknownTypeId
	FailedToCreateDisjointedBuffer
	FailedToParseMessage
	FailedToAllocatePayloadBecauseOfItsSize
	FailedToEnqueueLogMessage
)

// Kind buckets a Code into its broad category. It's informative only:
// SelfLog renders the Code's name, not its Kind.
type Kind uint8

const (
	KindDataIntegrity Kind = iota
	KindConcurrency
	KindSemantic
	KindRegistry
	KindResource
	KindParser
)

var names = map[Code]string{
	CorruptedDecorationInfo:                                  "CorruptedDecorationInfo",
	FailedToLockPayloadBuffer:                                "FailedToLockPayloadBuffer",
	UnableToRetrieveTimestampAndLevel:                        "UnableToRetrieveTimestampAndLevel",
	UnableToRetrieveStackTrace:                                "UnableToRetrieveStackTrace",
	UnableToRetrieveDecoratorsInfo:                            "UnableToRetrieveDecoratorsInfo",
	UnableToRetrieveSimpleMessageBuffer:                       "UnableToRetrieveSimpleMessageBuffer",
	UnableToRetrieveDisjointedMessageBuffer:                   "UnableToRetrieveDisjointedMessageBuffer",
	UnableToRetrieveValidPayloadsFromDisjointedMessageBuffer:  "UnableToRetrieveValidPayloadsFromDisjointedMessageBuffer",
	UnableToRetrieveMessageFromContextBuffer:                  "UnableToRetrieveMessageFromContextBuffer",
	UnableToRetrieveContextArgument:                           "UnableToRetrieveContextArgument",
	UnableToRetrieveContextDataFromLogMessageBuffer:           "UnableToRetrieveContextDataFromLogMessageBuffer",
	UnableToRetrieveValidContextArgumentIndex:                 "UnableToRetrieveValidContextArgumentIndex",
	UnknownTypeId:                                             "UnknownTypeId",
	FailedToCreateDisjointedBuffer:                            "FailedToCreateDisjointedBuffer",
	FailedToParseMessage:                                      "FailedToParseMessage",
	FailedToAllocatePayloadBecauseOfItsSize:                   "FailedToAllocatePayloadBecauseOfItsSize",
	FailedToEnqueueLogMessage:                                 "FailedToEnqueueLogMessage",
}

var kinds = map[Code]Kind{
	CorruptedDecorationInfo:                                  KindDataIntegrity,
	FailedToLockPayloadBuffer:                                KindConcurrency,
	UnableToRetrieveTimestampAndLevel:                        KindDataIntegrity,
	UnableToRetrieveStackTrace:                                KindDataIntegrity,
	UnableToRetrieveDecoratorsInfo:                            KindDataIntegrity,
	UnableToRetrieveSimpleMessageBuffer:                       KindDataIntegrity,
	UnableToRetrieveDisjointedMessageBuffer:                   KindDataIntegrity,
	UnableToRetrieveValidPayloadsFromDisjointedMessageBuffer:  KindDataIntegrity,
	UnableToRetrieveMessageFromContextBuffer:                  KindDataIntegrity,
	UnableToRetrieveContextArgument:                           KindDataIntegrity,
	UnableToRetrieveContextDataFromLogMessageBuffer:           KindDataIntegrity,
	UnableToRetrieveValidContextArgumentIndex:                 KindSemantic,
	UnknownTypeId:                                             KindRegistry,
	FailedToCreateDisjointedBuffer:                            KindResource,
	FailedToParseMessage:                                      KindParser,
	FailedToAllocatePayloadBecauseOfItsSize:                   KindResource,
	FailedToEnqueueLogMessage:                                 KindResource,
}

// String returns the taxonomy identifier, e.g. "UnknownTypeId".
func (c Code) String() string {
	if s, ok := names[c]; ok {
		return s
	}
	return fmt.Sprintf("Code(%d)", int(c))
}

// Kind reports which bucket c belongs to.
func (c Code) Kind() Kind {
	return kinds[c]
}

// Error is the core's error type: a Code plus an optional free-form
// detail, e.g. the offending TypeId or argument index.
type Error struct {
	Code   Code
	Detail string
}

func New(code Code, detail string) *Error {
	return &Error{Code: code, Detail: detail}
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Code.String()
	}
	return e.Code.String() + ": " + e.Detail
}

// Is supports errors.Is against another *Error with the same Code, so
// callers can write `errors.Is(err, nanoerr.New(nanoerr.UnknownTypeId, ""))`.
// The Detail is not compared.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return t.Code == e.Code
	}
	return false
}
