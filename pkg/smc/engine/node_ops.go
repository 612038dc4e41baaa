// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/netsec-ops/smcctl/pkg/smc/client"
)

// Member operations take the member name as their first argument after the
// context. It is ignored on single engines and required on clusters.

// GoOnline commands the member online.
func (e *Engine) GoOnline(ctx context.Context, member, comment string) (*client.Result, error) {
	return e.commitUpdate(ctx, "go_online", member, nil, optionalParams("comment", comment))
}

// GoOffline commands the member offline.
func (e *Engine) GoOffline(ctx context.Context, member, comment string) (*client.Result, error) {
	return e.commitUpdate(ctx, "go_offline", member, nil, optionalParams("comment", comment))
}

// GoStandby commands the member to standby.
func (e *Engine) GoStandby(ctx context.Context, member, comment string) (*client.Result, error) {
	return e.commitUpdate(ctx, "go_standby", member, nil, optionalParams("comment", comment))
}

// LockOnline locks the member online.
func (e *Engine) LockOnline(ctx context.Context, member, comment string) (*client.Result, error) {
	return e.commitUpdate(ctx, "lock_online", member, nil, optionalParams("comment", comment))
}

// LockOffline locks the member offline, GoOnline releases it.
func (e *Engine) LockOffline(ctx context.Context, member, comment string) (*client.Result, error) {
	return e.commitUpdate(ctx, "lock_offline", member, nil, optionalParams("comment", comment))
}

// ResetUserDB sends a reset of the LDAP user database to the member.
func (e *Engine) ResetUserDB(ctx context.Context, member, comment string) (*client.Result, error) {
	return e.commitUpdate(ctx, "reset_user_db", member, nil, optionalParams("comment", comment))
}

// Reboot reboots the member.
func (e *Engine) Reboot(ctx context.Context, member, comment string) (*client.Result, error) {
	return e.commitUpdate(ctx, "reboot", member, nil, optionalParams("comment", comment))
}

// TimeSync synchronizes the member clock.
func (e *Engine) TimeSync(ctx context.Context, member string) (*client.Result, error) {
	return e.commitUpdate(ctx, "time_sync", member, nil, nil)
}

// EnableSSH enables or disables the SSH daemon of the member.
func (e *Engine) EnableSSH(ctx context.Context, member string, enable bool, comment string) (*client.Result, error) {
	params := url.Values{"enable": {boolParam(enable)}}
	if comment != "" {
		params.Set("comment", comment)
	}

	return e.commitUpdate(ctx, "ssh", member, nil, params)
}

// ChangeSSHPassword changes the root password of the member.
func (e *Engine) ChangeSSHPassword(ctx context.Context, member, password, comment string) (*client.Result, error) {
	return e.commitUpdate(ctx, "change_ssh_pwd", member, map[string]string{"value": password}, optionalParams("comment", comment))
}

func (e *Engine) commitUpdate(ctx context.Context, op, member string, payload any, params url.Values) (*client.Result, error) {
	s, err := e.snapshot()
	if err != nil {
		return nil, err
	}

	t, err := s.resolveMember(op, member)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("member update", zap.String("engine", s.name), zap.String("member", t.Member), zap.String("op", op))

	return e.client.Update(ctx, t.Href, payload, params, s.etag)
}

// FetchLicense fetches the license of the member.
func (e *Engine) FetchLicense(ctx context.Context, member string) (*client.Result, error) {
	return e.commitCreate(ctx, "fetch", member, nil)
}

// BindLicense binds a license to the member; an empty licenseID lets the server pick one.
func (e *Engine) BindLicense(ctx context.Context, member, licenseID string) (*client.Result, error) {
	return e.commitCreate(ctx, "bind", member, optionalParams("license_item_id", licenseID))
}

// UnbindLicense unbinds the license of the member.
func (e *Engine) UnbindLicense(ctx context.Context, member string) (*client.Result, error) {
	return e.commitCreate(ctx, "unbind", member, nil)
}

// CancelUnbindLicense cancels a pending unbind.
func (e *Engine) CancelUnbindLicense(ctx context.Context, member string) (*client.Result, error) {
	return e.commitCreate(ctx, "cancel_unbind", member, nil)
}

// InitialContactOptions configure the initial configuration of a member.
type InitialContactOptions struct {
	EnableSSH       bool
	TimeZone        string
	Keyboard        string
	InstallOnServer bool
	// Filename, when set, receives the generated configuration.
	Filename string
}

// InitialContact generates the initial configuration of the member.
func (e *Engine) InitialContact(ctx context.Context, member string, opts InitialContactOptions) ([]byte, error) {
	params := optionalParams("time_zone", opts.TimeZone, "keyboard", opts.Keyboard)
	if params == nil {
		params = url.Values{}
	}

	params.Set("enable_ssh", boolParam(opts.EnableSSH))

	if opts.InstallOnServer {
		params.Set("install_on_server", boolParam(true))
	}

	result, err := e.commitCreate(ctx, "initial_contact", member, params)
	if err != nil {
		return nil, err
	}

	if opts.Filename != "" {
		if err = os.WriteFile(opts.Filename, result.Body, 0o600); err != nil {
			return result.Body, fmt.Errorf("error saving initial contact: %w", err)
		}
	}

	return result.Body, nil
}

func (e *Engine) commitCreate(ctx context.Context, op, member string, params url.Values) (*client.Result, error) {
	s, err := e.snapshot()
	if err != nil {
		return nil, err
	}

	t, err := s.resolveMember(op, member)
	if err != nil {
		return nil, err
	}

	return e.client.Create(ctx, t.Href, nil, params)
}

// MemberDocument is a per member read result.
type MemberDocument struct {
	Member string          `json:"member" yaml:"member"`
	Data   json.RawMessage `json:"data" yaml:"data"`
}

// NodeStatus is the basic status of a member.
type NodeStatus struct {
	Member              string `json:"member" yaml:"member"`
	Name                string `json:"name" yaml:"name"`
	Status              string `json:"status" yaml:"status"`
	State               string `json:"state" yaml:"state"`
	ConfigurationStatus string `json:"configuration_status" yaml:"configuration_status"`
	InstalledPolicy     string `json:"installed_policy" yaml:"installed_policy"`
	Platform            string `json:"platform" yaml:"platform"`
	Version             string `json:"version" yaml:"version"`
	DynamicUpdate       string `json:"dyn_up" yaml:"dyn_up"`
}

// Status returns the status of the addressed members, every member of a single engine.
func (e *Engine) Status(ctx context.Context, member string) ([]NodeStatus, error) {
	s, err := e.snapshot()
	if err != nil {
		return nil, err
	}

	return e.status(ctx, s, member)
}

func (e *Engine) status(ctx context.Context, s *state, member string) ([]NodeStatus, error) {
	docs, err := e.readAll(ctx, s, "status", member)
	if err != nil {
		return nil, err
	}

	statuses := make([]NodeStatus, len(docs))

	for i, doc := range docs {
		if err = json.Unmarshal(doc.Data, &statuses[i]); err != nil {
			return nil, fmt.Errorf("error decoding status of %q: %w", doc.Member, err)
		}

		statuses[i].Member = doc.Member
	}

	return statuses, nil
}

// ApplianceStatus returns the hardware status of the addressed members.
func (e *Engine) ApplianceStatus(ctx context.Context, member string) ([]MemberDocument, error) {
	return e.memberDocuments(ctx, "appliance_status", member)
}

// Diagnostics returns the diagnostics settings of the addressed members.
func (e *Engine) Diagnostics(ctx context.Context, member string) ([]MemberDocument, error) {
	return e.memberDocuments(ctx, "diagnostic", member)
}

// CertificateInfo returns the certificate details of the addressed members.
func (e *Engine) CertificateInfo(ctx context.Context, member string) ([]MemberDocument, error) {
	return e.memberDocuments(ctx, "certificate_info", member)
}

func (e *Engine) memberDocuments(ctx context.Context, op, member string) ([]MemberDocument, error) {
	s, err := e.snapshot()
	if err != nil {
		return nil, err
	}

	return e.readAll(ctx, s, op, member)
}

// readAll fetches every locator of op in the addressed members concurrently, preserving order.
func (e *Engine) readAll(ctx context.Context, s *state, op, member string) ([]MemberDocument, error) {
	targets, err := s.resolveMemberAll(op, member)
	if err != nil {
		return nil, err
	}

	docs := make([]MemberDocument, len(targets))

	eg, ctx := errgroup.WithContext(ctx)

	for i, t := range targets {
		eg.Go(func() error {
			data, err := e.client.FetchRaw(ctx, t.Href)
			if err != nil {
				return fmt.Errorf("error reading %s of %q: %w", op, t.Member, err)
			}

			docs[i] = MemberDocument{Member: t.Member, Data: data}

			return nil
		})
	}

	if err = eg.Wait(); err != nil {
		return nil, err
	}

	return docs, nil
}

// SGInfoOptions select optional content of the support archive.
type SGInfoOptions struct {
	IncludeCoreFiles     bool
	IncludeSlapcatOutput bool
}

// SGInfo downloads the support information archive of the member to filename.
func (e *Engine) SGInfo(ctx context.Context, member, filename string, opts SGInfoOptions) error {
	s, err := e.snapshot()
	if err != nil {
		return err
	}

	t, err := s.resolveMember("sginfo", member)
	if err != nil {
		return err
	}

	return e.client.Download(ctx, t.Href, url.Values{
		"include_core_files":     {boolParam(opts.IncludeCoreFiles)},
		"include_slapcat_output": {boolParam(opts.IncludeSlapcatOutput)},
	}, filename)
}
