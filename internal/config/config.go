// Package config loads business calendars and SLA policy sets from
// YAML configuration, with hot reload. All file I/O for the engine
// lives here; the engine itself only ever sees the converted model
// values.
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/deskhive/slacore/internal/models"
)

// Config is the on-disk configuration: named business calendars plus
// the SLA policy set, either inline or in separate policy files.
type Config struct {
	Calendars   []CalendarConfig `mapstructure:"calendars"`
	Policies    []PolicyConfig   `mapstructure:"policies"`
	PolicyFiles []string         `mapstructure:"policy_files"`
}

// CalendarConfig declares one business calendar. Days absent from the
// map are non-working days.
type CalendarConfig struct {
	Name         string               `mapstructure:"name"`
	Organization string               `mapstructure:"organization"` // uuid; empty = shared
	TimeZone     string               `mapstructure:"time_zone"`
	Default      bool                 `mapstructure:"default"`
	Days         map[string]DayConfig `mapstructure:"days"` // keyed mon..sun or monday..sunday
	Holidays     []HolidayConfig      `mapstructure:"holidays"`
}

// DayConfig is the working window for a single weekday.
type DayConfig struct {
	Start string `mapstructure:"start"` // HH:MM
	End   string `mapstructure:"end"`   // HH:MM
}

// HolidayConfig declares a holiday date, optionally recurring yearly.
type HolidayConfig struct {
	Name      string `mapstructure:"name"`
	Date      string `mapstructure:"date"` // YYYY-MM-DD
	Recurring bool   `mapstructure:"recurring"`
}

// PolicyConfig declares one SLA policy. Active defaults to true when
// omitted.
type PolicyConfig struct {
	Name              string            `mapstructure:"name" yaml:"name"`
	Description       string            `mapstructure:"description" yaml:"description"`
	Organization      string            `mapstructure:"organization" yaml:"organization"`
	ResponseMinutes   int               `mapstructure:"response_minutes" yaml:"response_minutes"`
	ResolutionMinutes int               `mapstructure:"resolution_minutes" yaml:"resolution_minutes"`
	Active            *bool             `mapstructure:"active" yaml:"active"`
	Conditions        []ConditionConfig `mapstructure:"conditions" yaml:"conditions"`
}

// ConditionConfig is one {field, operator, value} triple.
type ConditionConfig struct {
	Field    string      `mapstructure:"field" yaml:"field"`
	Operator string      `mapstructure:"operator" yaml:"operator"`
	Value    interface{} `mapstructure:"value" yaml:"value"`
}

// Load reads the configuration file and any referenced policy files.
// Policy file paths are resolved relative to the config file.
func Load(path string) (*Config, error) {
	v, err := newViper(path)
	if err != nil {
		return nil, err
	}
	return unmarshal(v, path)
}

// Watch loads the configuration and reloads it whenever the file
// changes, handing each successful reload to onChange. A reload that
// fails to parse keeps the previous configuration and logs.
func Watch(path string, onChange func(*Config)) (*Config, error) {
	v, err := newViper(path)
	if err != nil {
		return nil, err
	}
	cfg, err := unmarshal(v, path)
	if err != nil {
		return nil, err
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		log.Printf("config file changed: %s", e.Name)
		newCfg, err := unmarshal(v, path)
		if err != nil {
			log.Printf("failed to reload config: %v", err)
			return
		}
		onChange(newCfg)
	})

	return cfg, nil
}

func newViper(path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("SLACORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return v, nil
}

func unmarshal(v *viper.Viper, path string) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	for _, pf := range cfg.PolicyFiles {
		if !filepath.IsAbs(pf) {
			pf = filepath.Join(filepath.Dir(path), pf)
		}
		policies, err := LoadPolicyFile(pf)
		if err != nil {
			return nil, err
		}
		cfg.Policies = append(cfg.Policies, policies...)
	}
	return cfg, nil
}

// LoadPolicyFile reads a standalone YAML document containing a list of
// policies.
func LoadPolicyFile(path string) ([]PolicyConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	var policies []PolicyConfig
	if err := yaml.Unmarshal(data, &policies); err != nil {
		return nil, fmt.Errorf("failed to parse policy file %s: %w", path, err)
	}
	return policies, nil
}

var dayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// BusinessCalendars converts the configured calendars into model
// values. Unknown day names and malformed holiday dates are logged and
// skipped; window validation happens later when a schedule is
// compiled.
func (c *Config) BusinessCalendars() []models.BusinessCalendar {
	var calendars []models.BusinessCalendar
	for _, cc := range c.Calendars {
		calendar := models.BusinessCalendar{
			ID:             uuid.New(),
			Name:           cc.Name,
			OrganizationID: parseOrganization(cc.Organization, cc.Name),
			TimeZone:       cc.TimeZone,
			IsDefault:      cc.Default,
		}
		for name, day := range cc.Days {
			weekday, ok := dayNames[strings.ToLower(name)]
			if !ok {
				log.Printf("calendar %s: unknown day %q", cc.Name, name)
				continue
			}
			calendar.WorkingHours = append(calendar.WorkingHours, models.WorkingHours{
				DayOfWeek:    int(weekday),
				StartTime:    day.Start,
				EndTime:      day.End,
				IsWorkingDay: true,
			})
		}
		for _, h := range cc.Holidays {
			date, err := time.Parse("2006-01-02", h.Date)
			if err != nil {
				log.Printf("calendar %s: bad holiday date %q", cc.Name, h.Date)
				continue
			}
			calendar.Holidays = append(calendar.Holidays, models.Holiday{
				Name:        h.Name,
				Date:        date,
				IsRecurring: h.Recurring,
			})
		}
		calendars = append(calendars, calendar)
	}
	return calendars
}

// SLAPolicies converts the configured policies into model values.
func (c *Config) SLAPolicies() []models.SLAPolicy {
	var policies []models.SLAPolicy
	for _, pc := range c.Policies {
		policy := models.SLAPolicy{
			ID:                    uuid.New(),
			Name:                  pc.Name,
			Description:           pc.Description,
			OrganizationID:        parseOrganization(pc.Organization, pc.Name),
			ResponseTimeMinutes:   pc.ResponseMinutes,
			ResolutionTimeMinutes: pc.ResolutionMinutes,
			IsActive:              pc.Active == nil || *pc.Active,
		}
		for _, cond := range pc.Conditions {
			policy.Conditions = append(policy.Conditions, models.Condition{
				Field:    cond.Field,
				Operator: cond.Operator,
				Value:    cond.Value,
			})
		}
		policies = append(policies, policy)
	}
	return policies
}

func parseOrganization(value, owner string) *uuid.UUID {
	if value == "" {
		return nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		log.Printf("%s: bad organization id %q, treating as global", owner, value)
		return nil
	}
	return &id
}
