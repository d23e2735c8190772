package persistence

const schema = `
CREATE TABLE IF NOT EXISTS replica_kpis (
    scenario_id    TEXT NOT NULL,
    replica_index  INTEGER NOT NULL,
    service_level_pct REAL, stockout_days INTEGER, stockout_probability_pct REAL,
    avg_inventory_tm REAL, min_inventory_tm REAL, max_inventory_tm REAL, std_inventory_tm REAL,
    avg_autonomy_days REAL, min_autonomy_days REAL,
    total_demand_tm REAL, satisfied_demand_tm REAL, unsatisfied_demand_tm REAL,
    avg_daily_demand_tm REAL, max_daily_demand_tm REAL, min_daily_demand_tm REAL,
    total_received_tm REAL, total_dispatched_tm REAL,
    disruption_count INTEGER, blocked_days_total INTEGER, blocked_time_pct REAL,
    simulated_days INTEGER,
    PRIMARY KEY (scenario_id, replica_index)
);

CREATE TABLE IF NOT EXISTS replica_daily_records (
    scenario_id TEXT NOT NULL, replica_index INTEGER NOT NULL, day INTEGER NOT NULL,
    inventory REAL, demand REAL, demand_satisfied REAL, supply_received REAL,
    stockout INTEGER, route_blocked INTEGER, pending_orders INTEGER, autonomy_days REAL,
    PRIMARY KEY (scenario_id, replica_index, day)
);
`

const insertKPISQL = `
INSERT OR REPLACE INTO replica_kpis (
    scenario_id, replica_index,
    service_level_pct, stockout_days, stockout_probability_pct,
    avg_inventory_tm, min_inventory_tm, max_inventory_tm, std_inventory_tm,
    avg_autonomy_days, min_autonomy_days,
    total_demand_tm, satisfied_demand_tm, unsatisfied_demand_tm,
    avg_daily_demand_tm, max_daily_demand_tm, min_daily_demand_tm,
    total_received_tm, total_dispatched_tm,
    disruption_count, blocked_days_total, blocked_time_pct,
    simulated_days
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const insertDailyRecordSQL = `
INSERT OR REPLACE INTO replica_daily_records (
    scenario_id, replica_index, day,
    inventory, demand, demand_satisfied, supply_received,
    stockout, route_blocked, pending_orders, autonomy_days
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`
