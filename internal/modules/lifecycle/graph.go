// README: Per-family transition graphs and per-edge role authorization.
package lifecycle

import (
	"ozra/internal/modules/entity"
	"ozra/internal/types"
)

// Role is the capacity in which an actor touches an entity.
type Role string

const (
	RoleOwner    Role = "owner"    // driver / sender / customer
	RoleAssignee Role = "assignee" // passenger / courier
	RoleService  Role = "service"  // restaurant
)

type edge struct {
	from, to entity.Status
}

// graphs represent the state flow per family as code. Ride and Delivery
// share the reduced four-step shape; FoodOrder carries the full chain.
var graphs = map[entity.Family]map[entity.Status][]entity.Status{
	entity.FamilyRide: {
		entity.StatusPending:    {entity.StatusAccepted, entity.StatusCancelled},
		entity.StatusAccepted:   {entity.StatusInProgress, entity.StatusCancelled},
		entity.StatusInProgress: {entity.StatusCompleted},
	},
	entity.FamilyDelivery: {
		entity.StatusPending:    {entity.StatusAccepted, entity.StatusCancelled},
		entity.StatusAccepted:   {entity.StatusInProgress, entity.StatusCancelled},
		entity.StatusInProgress: {entity.StatusCompleted},
	},
	entity.FamilyFood: {
		entity.StatusPending:    {entity.StatusConfirmed, entity.StatusCancelled},
		entity.StatusConfirmed:  {entity.StatusPreparing, entity.StatusCancelled},
		entity.StatusPreparing:  {entity.StatusReady, entity.StatusCancelled},
		entity.StatusReady:      {entity.StatusPickedUp, entity.StatusCancelled},
		entity.StatusPickedUp:   {entity.StatusDelivering, entity.StatusCancelled},
		entity.StatusDelivering: {entity.StatusDelivered, entity.StatusCancelled},
	},
}

// edgeRoles lists which roles may drive each edge. Edges reached through the
// assignment service (pending→accepted/confirmed with an assignee bound) are
// written by a compare-and-set there and bypass this table.
var edgeRoles = map[entity.Family]map[edge][]Role{
	entity.FamilyRide: {
		{entity.StatusPending, entity.StatusAccepted}:      {RoleOwner},
		{entity.StatusAccepted, entity.StatusInProgress}:   {RoleOwner},
		{entity.StatusInProgress, entity.StatusCompleted}:  {RoleOwner},
		{entity.StatusPending, entity.StatusCancelled}:     {RoleOwner},
		{entity.StatusAccepted, entity.StatusCancelled}:    {RoleOwner, RoleAssignee},
	},
	entity.FamilyDelivery: {
		{entity.StatusPending, entity.StatusAccepted}:      {RoleAssignee},
		{entity.StatusAccepted, entity.StatusInProgress}:   {RoleAssignee},
		{entity.StatusInProgress, entity.StatusCompleted}:  {RoleAssignee},
		{entity.StatusPending, entity.StatusCancelled}:     {RoleOwner},
		{entity.StatusAccepted, entity.StatusCancelled}:    {RoleOwner, RoleAssignee},
	},
	entity.FamilyFood: {
		{entity.StatusPending, entity.StatusConfirmed}:     {RoleService},
		{entity.StatusConfirmed, entity.StatusPreparing}:   {RoleService},
		{entity.StatusPreparing, entity.StatusReady}:       {RoleService},
		{entity.StatusReady, entity.StatusPickedUp}:        {RoleAssignee},
		{entity.StatusPickedUp, entity.StatusDelivering}:   {RoleAssignee},
		{entity.StatusDelivering, entity.StatusDelivered}:  {RoleAssignee},
		{entity.StatusPending, entity.StatusCancelled}:     {RoleOwner, RoleService},
		{entity.StatusConfirmed, entity.StatusCancelled}:   {RoleOwner, RoleService},
		{entity.StatusPreparing, entity.StatusCancelled}:   {RoleService},
		{entity.StatusReady, entity.StatusCancelled}:       {RoleService},
		{entity.StatusPickedUp, entity.StatusCancelled}:    {RoleService, RoleAssignee},
		{entity.StatusDelivering, entity.StatusCancelled}:  {RoleService, RoleAssignee},
	},
}

// CanTransition reports whether from→to is an edge of the family's graph.
func CanTransition(f entity.Family, from, to entity.Status) bool {
	next, ok := graphs[f][from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

// RolesOf returns every role the actor holds on the entity. A booked ride
// passenger counts as assignee even when a later passenger became primary.
func RolesOf(e *entity.Entity, actor types.ID) []Role {
	var roles []Role
	if actor == e.OwnerID {
		roles = append(roles, RoleOwner)
	}
	if e.AssigneeID != nil && actor == *e.AssigneeID {
		roles = append(roles, RoleAssignee)
	} else {
		for _, b := range e.Bookings {
			if b.PassengerID == actor {
				roles = append(roles, RoleAssignee)
				break
			}
		}
	}
	if e.ServiceID != nil && actor == *e.ServiceID {
		roles = append(roles, RoleService)
	}
	return roles
}

// Authorized reports whether the actor may drive from→to on the entity.
func Authorized(e *entity.Entity, actor types.ID, from, to entity.Status) bool {
	allowed, ok := edgeRoles[e.Family][edge{from, to}]
	if !ok {
		return false
	}
	for _, have := range RolesOf(e, actor) {
		for _, want := range allowed {
			if have == want {
				return true
			}
		}
	}
	return false
}
