package activities

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	activitiesTable = "strava_activities"
	activityColumns = "id, name, distance, moving_time, type, start_date"

	paceExpr    = "distance::double precision / NULLIF(moving_time, 0) * 3600"
	dayKeyExpr  = "(start_date AT TIME ZONE 'UTC')::date"
	weekKeyExpr = "date_trunc('week', start_date AT TIME ZONE 'UTC')::date"
)

var orderColumns = map[OrderField]string{
	OrderByStartDate: "start_date",
	OrderByDistance:  "distance",
	OrderByID:        "id",
}

var aggregateFields = map[AggregateField]string{
	FieldDistance:   "distance",
	FieldMovingTime: "moving_time",
	FieldPace:       paceExpr,
}

var groupKeys = map[GroupBy]string{
	GroupByDay:  dayKeyExpr,
	GroupByWeek: weekKeyExpr,
}

type queryArgs struct {
	args []any
}

func (q *queryArgs) add(v any) string {
	q.args = append(q.args, v)
	return "$" + strconv.Itoa(len(q.args))
}

func whereClause(filter Filter, qa *queryArgs) string {
	var conds []string
	if !filter.Since.IsZero() {
		conds = append(conds, "start_date >= "+qa.add(filter.Since.UTC()))
	}
	if !filter.Until.IsZero() {
		conds = append(conds, "start_date < "+qa.add(filter.Until.UTC()))
	}
	if filter.Type != "" {
		conds = append(conds, "type = "+qa.add(filter.Type))
	}
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

func direction(desc bool) string {
	if desc {
		return "DESC"
	}
	return "ASC"
}

func buildFindQuery(filter Filter, order Order, limit int) (string, []any, error) {
	column, ok := orderColumns[order.Field]
	if !ok {
		return "", nil, fmt.Errorf("%w: unknown order field [%s]", ErrQuery, order.Field)
	}
	if limit < 0 {
		return "", nil, fmt.Errorf("%w: negative limit %d", ErrQuery, limit)
	}

	qa := &queryArgs{}
	var sb strings.Builder
	sb.WriteString("SELECT " + activityColumns + " FROM " + activitiesTable)
	sb.WriteString(whereClause(filter, qa))
	sb.WriteString(" ORDER BY " + column + " " + direction(order.Desc))
	if order.Field != OrderByID {
		// stable order for equal keys
		sb.WriteString(", id ASC")
	}
	if limit > 0 {
		sb.WriteString(" LIMIT " + qa.add(limit))
	}

	return sb.String(), qa.args, nil
}

func buildFindByIDQuery() string {
	return "SELECT " + activityColumns + " FROM " + activitiesTable + " WHERE id = $1"
}

func aggregateExpr(op AggregateOp, field AggregateField) (string, error) {
	if op == OpCount {
		return "COUNT(*)::double precision", nil
	}

	column, ok := aggregateFields[field]
	if !ok {
		return "", fmt.Errorf("%w: unknown aggregate field [%s]", ErrQuery, field)
	}

	switch op {
	case OpSum:
		return "SUM(" + column + ")::double precision", nil
	case OpAvg:
		return "AVG(" + column + ")::double precision", nil
	default:
		return "", fmt.Errorf("%w: unknown aggregate op [%s]", ErrQuery, op)
	}
}

func buildAggregateQuery(q AggregateQuery) (string, []any, error) {
	expr, err := aggregateExpr(q.Op, q.Field)
	if err != nil {
		return "", nil, err
	}
	if q.Limit < 0 {
		return "", nil, fmt.Errorf("%w: negative limit %d", ErrQuery, q.Limit)
	}

	qa := &queryArgs{}
	if q.GroupBy == GroupByNone {
		if q.Limit != 0 || q.Descending {
			return "", nil, fmt.Errorf("%w: order and limit need a grouping", ErrQuery)
		}
		query := "SELECT " + expr + " FROM " + activitiesTable + whereClause(q.Filter, qa)
		return query, qa.args, nil
	}

	key, ok := groupKeys[q.GroupBy]
	if !ok {
		return "", nil, fmt.Errorf("%w: unknown grouping [%s]", ErrQuery, q.GroupBy)
	}

	var sb strings.Builder
	sb.WriteString("SELECT " + key + " AS group_key, " + expr + " FROM " + activitiesTable)
	sb.WriteString(whereClause(q.Filter, qa))
	sb.WriteString(" GROUP BY group_key ORDER BY group_key " + direction(q.Descending))
	if q.Limit > 0 {
		sb.WriteString(" LIMIT " + qa.add(q.Limit))
	}

	return sb.String(), qa.args, nil
}
