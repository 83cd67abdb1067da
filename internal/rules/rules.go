// Package rules is the ordered consistency pipeline every customer-record
// create/update passes through before it is durably committed. The legacy
// system spread these rules across uncoordinated database triggers; here
// they run as one explicit sequence so their interaction is deliberate:
//
//  1. validate  - reject malformed input
//  2. sizing    - recompute derived fields when module_count changed
//  3. duplicate - reject a second active record with the same (name, phone)
//  4. dispatch  - stamp/clear dispatch_date on team assignment transitions
//  5. team phone - re-resolve the cached directory phone on team change
//
// Apply is pure with respect to its record arguments: old is never mutated
// and the returned record is a fresh value. The caller owns the transaction.
package rules

import (
	"context"
	"fmt"
	"strings"
	"time"

	"solarcrm-service/internal/domain/record"
	xerrors "solarcrm-service/internal/pkg/errors"
	"solarcrm-service/internal/sizing"
	"solarcrm-service/internal/workflow"
)

// Directory resolves team phones; satisfied by team.Repository.
type Directory interface {
	TeamPhone(ctx context.Context, name string) (*string, error)
}

// Duplicates detects (name, phone) collisions; satisfied by record.Repository.
type Duplicates interface {
	ActiveExists(ctx context.Context, name, phone string, excludeID int64) (bool, error)
}

// Apply merges patch over old (nil old = create) and runs the pipeline,
// returning the record ready to persist. Any rule failure aborts the whole
// mutation; partial application is never observable because nothing is
// written here.
func Apply(ctx context.Context, old *record.CustomerRecord, patch record.Patch, dir Directory, dup Duplicates, now time.Time) (*record.CustomerRecord, error) {
	rec, err := merge(old, patch)
	if err != nil {
		return nil, err
	}

	moduleCountChanged := old == nil || !intEq(old.ModuleCount, rec.ModuleCount)
	identityChanged := old == nil || old.CustomerName != rec.CustomerName || old.Phone != rec.Phone
	oldTeam := ""
	if old != nil {
		oldTeam = old.TeamName()
	}
	newTeam := rec.TeamName()
	teamChanged := old == nil && newTeam != "" || old != nil && oldTeam != newTeam

	// Sizing rule: derived fields are always f(module_count); caller input
	// for them was never accepted into the patch in the first place.
	if moduleCountChanged {
		rec.ApplySizing(sizing.Calculate(rec.ModuleCount))
	}

	// Duplicate rule.
	if identityChanged {
		exists, err := dup.ActiveExists(ctx, rec.CustomerName, rec.Phone, rec.ID)
		if err != nil {
			return nil, fmt.Errorf("duplicate check: %w", err)
		}
		if exists {
			return nil, fmt.Errorf("%w: active record with name %q and phone %q already exists",
				xerrors.ErrConflict, rec.CustomerName, rec.Phone)
		}
	}

	// Dispatch rule: fires only on empty<->non-empty transitions, so a
	// reassignment between two teams keeps the original dispatch date.
	if teamChanged {
		switch {
		case oldTeam == "" && newTeam != "":
			t := now
			rec.DispatchDate = &t
		case oldTeam != "" && newTeam == "":
			rec.DispatchDate = nil
		}
	}

	// Team-phone rule: the cached phone mirrors the directory whenever the
	// assignment changes. An unregistered team resolves to no phone rather
	// than an error.
	if teamChanged {
		if newTeam == "" {
			rec.ConstructionTeamPhone = nil
		} else {
			phone, err := dir.TeamPhone(ctx, newTeam)
			if err != nil {
				return nil, fmt.Errorf("team phone lookup: %w", err)
			}
			rec.ConstructionTeamPhone = phone
		}
	}

	return rec, nil
}

// merge builds the candidate record from old + patch and validates the
// caller-settable fields.
func merge(old *record.CustomerRecord, patch record.Patch) (*record.CustomerRecord, error) {
	var rec *record.CustomerRecord
	if old == nil {
		rec = &record.CustomerRecord{
			TechnicalStatus:  workflow.ReviewPending,
			AcceptanceStatus: workflow.AcceptancePending,
		}
	} else {
		rec = old.Clone()
	}

	if patch.CustomerName != nil {
		rec.CustomerName = strings.TrimSpace(*patch.CustomerName)
	}
	if patch.Phone != nil {
		rec.Phone = strings.TrimSpace(*patch.Phone)
	}
	if patch.Address != nil {
		rec.Address = patch.Address
	}
	if patch.Notes != nil {
		rec.Notes = patch.Notes
	}
	if patch.Tags != nil {
		rec.Tags = append([]string(nil), patch.Tags...)
	}
	if patch.ModuleCount != nil {
		n := *patch.ModuleCount
		rec.ModuleCount = &n
	}
	if patch.ConstructionTeam != nil {
		name := strings.TrimSpace(*patch.ConstructionTeam)
		if name == "" {
			rec.ConstructionTeam = nil
		} else {
			rec.ConstructionTeam = &name
		}
	}

	if rec.CustomerName == "" {
		return nil, fmt.Errorf("%w: customer_name is required", xerrors.ErrValidation)
	}
	if rec.Phone == "" {
		return nil, fmt.Errorf("%w: phone is required", xerrors.ErrValidation)
	}
	if rec.ModuleCount != nil && *rec.ModuleCount < 0 {
		return nil, fmt.Errorf("%w: module_count must not be negative", xerrors.ErrValidation)
	}

	return rec, nil
}

func intEq(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
